// Package supportkb embeds the support knowledge retrieval subsystem in a Go
// program: semantic knowledge base search with keyword fallback, and ticket
// history matching with aggregated resolutions.
//
//	client, err := supportkb.New(
//	    supportkb.WithValkey("localhost:6379", ""),
//	    supportkb.WithEmbedder(myEmbedder),
//	    supportkb.WithVectorDimensions(1536),
//	    supportkb.WithCorpus("data/knowledge_base", "data/ticket_history.json"),
//	)
//	defer client.Close()
//
//	_, _ = client.Rebuild(ctx, false)
//	kb, _ := client.SearchKnowledgeBase(ctx, "my payment failed")
//	hist, _ := client.SearchTicketHistory(ctx, supportkb.HistoryQuery{CustomerID: supportkb.String("CUST-001")})
//
// Knowledge base search never fails because of the vector index or the
// embedding service; it answers from the corpus with keyword matching instead.
package supportkb
