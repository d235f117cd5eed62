package knowledge

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// collectionPrefix namespaces knowledge-base collections away from any
// other collections sharing the vector store.
const collectionPrefix = "kb"

// maxCollectionNameLen matches the store-side name validation limit.
const maxCollectionNameLen = 64

// Scope identifies one knowledge base: a (user, chat) pair. Distinct
// scopes always map to distinct collections.
type Scope struct {
	UserID string
	ChatID string
}

// Validate checks that both identifiers are present.
func (s Scope) Validate() error {
	if strings.TrimSpace(s.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(s.ChatID) == "" {
		return fmt.Errorf("chat id is required")
	}
	return nil
}

// CollectionName derives the vector collection name for this scope. The
// mapping is deterministic and injective: the readable form is
// kb_<user>_<chat> lowercased with disallowed runes folded to '_', and
// whenever that folding loses information (or the name would exceed the
// length limit) an FNV hash of the exact pair is appended so collisions
// between distinct scopes cannot occur.
func (s Scope) CollectionName() string {
	user, userLossy := sanitizeIdentifier(s.UserID)
	chat, chatLossy := sanitizeIdentifier(s.ChatID)

	name := fmt.Sprintf("%s_%s_%s", collectionPrefix, user, chat)
	if !userLossy && !chatLossy && len(name) <= maxCollectionNameLen {
		return name
	}

	h := fnv.New32a()
	h.Write([]byte(s.UserID))
	h.Write([]byte{0})
	h.Write([]byte(s.ChatID))
	suffix := fmt.Sprintf("_%08x", h.Sum32())

	if len(name)+len(suffix) > maxCollectionNameLen {
		name = name[:maxCollectionNameLen-len(suffix)]
	}
	return name + suffix
}

// sanitizeIdentifier folds an identifier onto [a-z0-9_] and reports
// whether any rune changed in a way two different inputs could share. An
// identifier that itself contains '_' is ambiguous against the section
// separator, so it counts as lossy too.
func sanitizeIdentifier(id string) (string, bool) {
	var b strings.Builder
	lossy := false
	for _, r := range strings.ToLower(id) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
			lossy = true
		}
	}
	if id != strings.ToLower(id) {
		lossy = true
	}
	return b.String(), lossy
}
