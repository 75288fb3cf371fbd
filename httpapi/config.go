package httpapi

// Config defines control API settings.
type Config struct {
	Addr string
}
