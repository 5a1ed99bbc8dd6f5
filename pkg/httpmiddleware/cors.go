package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// AllowOrigins lists origins permitted to make cross-origin requests.
	// Empty, or a single "*", allows every origin.
	AllowOrigins []string

	// AllowMethods lists the HTTP methods clients may use. Defaults to
	// "GET, POST, PUT, DELETE, OPTIONS" when empty.
	AllowMethods []string

	// AllowHeaders lists the request headers clients may send. When empty,
	// the preflight's Access-Control-Request-Headers value is echoed back.
	AllowHeaders []string

	// ExposeHeaders lists response headers the browser may read.
	ExposeHeaders []string

	// AllowCredentials permits cookies and auth headers on cross-origin
	// requests. Incompatible with the wildcard origin; when set, the
	// middleware echoes the matched origin instead of "*".
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds. Zero omits the
	// header, negative sends "0".
	MaxAge int
}

// cors holds precomputed header values so the hot path does no joining or
// case conversion.
type cors struct {
	next http.Handler

	wildcard bool
	origins  map[string]string // lowercase -> configured spelling

	methods     string
	headers     string
	expose      string
	credentials bool
	maxAge      string
}

// CORS returns a middleware handling Cross-Origin Resource Sharing. Origin
// matching is case-insensitive, Vary headers keep shared caches from serving
// one origin's response to another, and preflights are answered with 204
// without reaching the wrapped handler.
func CORS(cfg CORSConfig) Middleware {
	c := &cors{
		wildcard:    len(cfg.AllowOrigins) == 0,
		origins:     make(map[string]string, len(cfg.AllowOrigins)),
		methods:     strings.Join(cfg.AllowMethods, ", "),
		headers:     strings.Join(cfg.AllowHeaders, ", "),
		expose:      strings.Join(cfg.ExposeHeaders, ", "),
		credentials: cfg.AllowCredentials,
	}
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			c.wildcard = true
			continue
		}
		c.origins[strings.ToLower(o)] = o
	}
	// The fetch spec forbids credentials with a wildcard origin, so echo the
	// matched origin instead.
	if c.credentials {
		c.wildcard = false
	}
	if c.methods == "" {
		c.methods = "GET, POST, PUT, DELETE, OPTIONS"
	}
	switch {
	case cfg.MaxAge > 0:
		c.maxAge = strconv.Itoa(cfg.MaxAge)
	case cfg.MaxAge < 0:
		c.maxAge = "0"
	}

	return func(next http.Handler) http.Handler {
		h := *c
		h.next = next
		return &h
	}
}

func (c *cors) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Same-origin request. Still vary on Origin so caches keep CORS and
		// non-CORS responses apart.
		if !c.wildcard {
			w.Header().Add("Vary", "Origin")
		}
		c.next.ServeHTTP(w, r)
		return
	}

	allow := c.allowValue(origin)

	if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
		c.preflight(w, r, allow)
		return
	}

	if !c.wildcard {
		w.Header().Add("Vary", "Origin")
	}
	if allow != "" {
		w.Header().Set("Access-Control-Allow-Origin", allow)
		if c.credentials {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		if c.expose != "" {
			w.Header().Set("Access-Control-Expose-Headers", c.expose)
		}
	}
	c.next.ServeHTTP(w, r)
}

func (c *cors) preflight(w http.ResponseWriter, r *http.Request, allow string) {
	h := w.Header()
	h.Add("Vary", "Origin")
	h.Add("Vary", "Access-Control-Request-Method")
	h.Add("Vary", "Access-Control-Request-Headers")

	if allow == "" {
		// Disallowed origin: answer the preflight but grant nothing.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.Set("Access-Control-Allow-Origin", allow)
	h.Set("Access-Control-Allow-Methods", c.methods)
	if c.headers != "" {
		h.Set("Access-Control-Allow-Headers", c.headers)
	} else if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
		h.Set("Access-Control-Allow-Headers", req)
	}
	if c.credentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
	if c.maxAge != "" {
		h.Set("Access-Control-Max-Age", c.maxAge)
	}
	w.WriteHeader(http.StatusNoContent)
}

// allowValue returns the Access-Control-Allow-Origin value for origin, or ""
// when the origin is not allowed.
func (c *cors) allowValue(origin string) string {
	if c.wildcard {
		return "*"
	}
	return c.origins[strings.ToLower(origin)]
}
