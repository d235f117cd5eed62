package vectorstore

// Document represents one chunk to be stored in the vector store.
type Document struct {
	// ID is the unique identifier for the chunk.
	ID string

	// Content is the text content of the chunk.
	Content string

	// Metadata contains additional key-value pairs carried in the payload.
	// Knowledge-base chunks carry: collection_id, file_id, filename,
	// user_id, chat_id.
	Metadata map[string]interface{}

	// Collection is the target collection name for this document.
	Collection string
}

// SearchResult represents a similarity search hit.
type SearchResult struct {
	// ID is the chunk identifier.
	ID string

	// Content is the chunk text content.
	Content string

	// Score is the similarity score (higher = more similar).
	Score float32

	// Metadata contains the chunk metadata.
	Metadata map[string]interface{}
}
