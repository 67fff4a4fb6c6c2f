package store

// ConversationThread maps a local coach conversation to the model
// provider's conversation primitive. ProviderConversationID stays null
// until the first successful provider-side creation; LastResponseID
// chains turns so follow-up calls carry context without resending
// history. Mutated after every assistant turn.
type ConversationThread struct {
	ProviderConversationID *string
	LastResponseID         *string
	UpdatedTs              int64
	ConversationID         int32
}

// UpsertConversationThread updates only the non-nil fields, preserving
// the others on conflict.
type UpsertConversationThread struct {
	ProviderConversationID *string
	LastResponseID         *string
	ConversationID         int32
}
