package auth

import (
	"net/http"
	"sync"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// committingWriter saves the staff session and sets its cookie just before
// the response headers go out. gin flushes headers lazily, which rules out
// the stock scs LoadAndSave wrapper.
type committingWriter struct {
	gin.ResponseWriter
	sm     *SessionManager
	req    *http.Request
	commit sync.Once
}

func (w *committingWriter) WriteHeader(code int) {
	w.commitSession()
	w.ResponseWriter.WriteHeader(code)
}

func (w *committingWriter) WriteHeaderNow() {
	w.commitSession()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *committingWriter) Write(b []byte) (int, error) {
	w.commitSession()
	return w.ResponseWriter.Write(b)
}

func (w *committingWriter) WriteString(s string) (int, error) {
	w.commitSession()
	return w.ResponseWriter.WriteString(s)
}

func (w *committingWriter) commitSession() {
	w.commit.Do(func() {
		ctx := w.req.Context()
		switch w.sm.Status(ctx) {
		case scs.Modified:
			token, expiry, err := w.sm.Commit(ctx)
			if err != nil {
				log.Error("Failed to commit staff session", "error", err)
				return
			}
			w.sm.WriteSessionCookie(ctx, w.ResponseWriter, token, expiry)
		case scs.Destroyed:
			w.sm.WriteSessionCookie(ctx, w.ResponseWriter, "", time.Time{})
		}
	})
}

// SessionLoadSave loads the staff session for the request and saves it on
// the way out. Register it ahead of CSRF and authentication middleware.
func (sm *SessionManager) SessionLoadSave() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if cookie, err := c.Request.Cookie(sm.Cookie.Name); err == nil {
			token = cookie.Value
		}

		ctx, err := sm.Load(c.Request.Context(), token)
		if err != nil {
			log.Error("Failed to load staff session", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "failed to load session",
				"code":  "internal",
			})
			return
		}
		c.Request = c.Request.WithContext(ctx)

		w := &committingWriter{ResponseWriter: c.Writer, sm: sm, req: c.Request}
		c.Writer = w
		c.Next()

		// Handlers that write nothing still need the session saved
		w.commitSession()
	}
}
