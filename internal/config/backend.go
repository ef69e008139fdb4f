package config

// ConfigBackend abstracts persistent config storage. The default is a
// flat JSON file in the XDG config directory; tests substitute an
// in-memory map.
type ConfigBackend interface {
	GetString(key string) (val string, ok bool, err error)
	GetInt(key string) (val int, ok bool, err error)
	SetString(key, val string) error
	SetInt(key string, val int) error
	Delete(key string) error
}
