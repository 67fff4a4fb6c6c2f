package store

// MemoryNoteCategory groups durable coaching memories.
type MemoryNoteCategory string

const (
	MemoryCategoryPreference MemoryNoteCategory = "preference"
	MemoryCategoryFact       MemoryNoteCategory = "fact"
	MemoryCategoryConstraint MemoryNoteCategory = "constraint"
)

// MemoryNote is a short durable fact about a member, replayed verbatim
// into future coaching prompts. Content is only ever written after it
// has passed the memory guardrail.
type MemoryNote struct {
	UID       string
	Content   string
	Category  MemoryNoteCategory
	RowStatus RowStatus
	CreatedTs int64
	ID        int32
	MemberID  int32
}

type CreateMemoryNote struct {
	UID      string
	Content  string
	Category MemoryNoteCategory
	MemberID int32
}

// FindMemoryNote lists notes newest first.
type FindMemoryNote struct {
	ID       *int32
	UID      *string
	MemberID *int32
	Limit    *int
}

type DeleteMemoryNote struct {
	ID int32
}

// UpsertMemoryNoteEmbedding stores the embedding vector for a note
// under a model name, replacing any previous vector for that pair.
type UpsertMemoryNoteEmbedding struct {
	Model     string
	Embedding []float32
	NoteID    int32
}

// SearchMemoryNotes performs vector similarity search over a member's
// notes. Postgres ranks in the database via pgvector; SQLite computes
// cosine similarity in the application layer.
type SearchMemoryNotes struct {
	Embedding []float32
	MemberID  int32
	Limit     int
}

type MemoryNoteSearchResult struct {
	Note  *MemoryNote
	Score float64
}
