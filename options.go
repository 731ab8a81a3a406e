package supportkb

import (
	"io/fs"
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "valkey", "redis" or "postgres"
	addrs    []string
	password string
	dsn      string

	embedder            Embedder
	queryInstruction    string
	documentInstruction string
	embedTimeout        time.Duration

	collection       string
	vectorDimensions int
	hnswM            int
	hnswEFConstruct  int

	corpusFS     fs.FS
	articlesPath string
	ticketsPath  string

	logger *zap.Logger
}

// WithValkey configures the client to connect to a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithPostgres stores vectors in Postgres with the pgvector extension.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "postgres"
		c.dsn = dsn
	})
}

// WithEmbedder sets the text embedding provider. Without one every knowledge
// base search is answered by keyword matching.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithInstructions sets prefixes prepended to queries and to indexed documents
// before embedding, for models trained with task instructions.
func WithInstructions(query, document string) Option {
	return optionFunc(func(c *clientConfig) {
		c.queryInstruction = query
		c.documentInstruction = document
	})
}

// WithEmbedTimeout bounds every embedding call. Default: 10s.
func WithEmbedTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedTimeout = d
	})
}

// WithCollection names the vector index collection. Default: "knowledge_base".
func WithCollection(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.collection = name
	})
}

// WithVectorDimensions sets the embedding dimension. Default: 1536.
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorDimensions = dim
	})
}

// WithHNSW configures HNSW index parameters (M and EF construction) for the
// Valkey and Redis drivers. Defaults: M=16, EFConstruct=200.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithCorpus sets where articles and tickets are read from. articles is a JSON
// array file or a directory of <id>.txt files; tickets is a JSON array file.
func WithCorpus(articles, tickets string) Option {
	return optionFunc(func(c *clientConfig) {
		c.corpusFS = nil
		c.articlesPath = articles
		c.ticketsPath = tickets
	})
}

// WithCorpusFS is WithCorpus over an arbitrary filesystem, such as an embed.FS.
func WithCorpusFS(fsys fs.FS, articles, tickets string) Option {
	return optionFunc(func(c *clientConfig) {
		c.corpusFS = fsys
		c.articlesPath = articles
		c.ticketsPath = tickets
	})
}

// WithLogger enables structured logging. Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}
