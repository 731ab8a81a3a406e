package domain

// KeyPrefix namespaces every key the service writes to the KV/search store.
const KeyPrefix = "supportkb:"

// DefaultCollection is the vector index collection holding knowledge articles.
const DefaultCollection = "knowledge_base"
