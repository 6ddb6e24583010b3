package badger

// Key prefixes for different data types
const (
	dictionaryPrefix = "dict:"
	sessionPrefix    = "sess:"
)

// makeDictionaryKey generates the key for a suggestion list.
// Format: dict:<normalized query key>
func makeDictionaryKey(queryKey string) []byte {
	buf := make([]byte, 0, len(dictionaryPrefix)+len(queryKey))
	buf = append(buf, dictionaryPrefix...)
	return append(buf, queryKey...)
}

// makeSessionKey generates the key for a query session.
// Format: sess:<session id>
func makeSessionKey(id string) []byte {
	buf := make([]byte, 0, len(sessionPrefix)+len(id))
	buf = append(buf, sessionPrefix...)
	return append(buf, id...)
}
