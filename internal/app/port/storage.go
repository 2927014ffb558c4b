package port

// KeyValueStore is the durable string storage shared by the session store and the wallet kit.
// Get reports false for an absent key; Delete of an absent key is not an error.
type KeyValueStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
	// Keys returns every stored key starting with prefix.
	Keys(prefix string) ([]string, error)
}
