package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/guttosm/mktabuse/internal/domain/dto"
)

func TestErrorHandler(t *testing.T) {
	cases := []struct {
		name        string
		handler     gin.HandlerFunc
		wantCode    int
		wantMessage string
	}{
		{
			name:        "plain error becomes 500",
			handler:     func(c *gin.Context) { _ = c.Error(assertErr{}) },
			wantCode:    http.StatusInternalServerError,
			wantMessage: "Internal server error",
		},
		{
			name: "error response keeps status and message",
			handler: func(c *gin.Context) {
				c.Status(http.StatusUnprocessableEntity)
				_ = c.Error(dto.NewErrorResponse("bad input", nil))
			},
			wantCode:    http.StatusUnprocessableEntity,
			wantMessage: "bad input",
		},
		{
			name:     "no error passes through",
			handler:  func(c *gin.Context) { c.String(http.StatusOK, "ok") },
			wantCode: http.StatusOK,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			r := gin.New()
			r.Use(ErrorHandler)
			r.GET("/", tc.handler)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			if w.Code != tc.wantCode {
				t.Fatalf("code=%d want %d", w.Code, tc.wantCode)
			}
			if tc.wantMessage == "" {
				return
			}
			var body dto.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Message != tc.wantMessage {
				t.Fatalf("message=%q want %q", body.Message, tc.wantMessage)
			}
		})
	}
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }

func TestRecoveryMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), RecoveryMiddleware())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if w.Code != 500 {
		t.Fatalf("code=%d", w.Code)
	}
	var body dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ErrorDetails != "boom" {
		t.Fatalf("details=%q", body.ErrorDetails)
	}
}

func TestRateLimiter(t *testing.T) {
	cases := []struct {
		name   string
		reqs   int
		burst  int
		expect int
	}{
		{name: "within burst", reqs: 2, burst: 3, expect: http.StatusOK},
		{name: "exceed burst", reqs: 5, burst: 3, expect: http.StatusTooManyRequests},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			rateLimiterLock.Lock()
			visitors = make(map[string]*visitor)
			perSecond = rate.Limit(0.001)
			burst = tc.burst
			rateLimiterLock.Unlock()

			r := gin.New()
			r.Use(RateLimiter())
			r.GET("/", func(c *gin.Context) { c.String(200, "ok") })
			var last *httptest.ResponseRecorder
			for i := 0; i < tc.reqs; i++ {
				last = httptest.NewRecorder()
				r.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/", nil))
			}
			if last.Code != tc.expect {
				t.Fatalf("expected %d, got %d", tc.expect, last.Code)
			}
			if tc.expect == http.StatusTooManyRequests && last.Header().Get("Retry-After") == "" {
				t.Fatalf("missing Retry-After header")
			}
		})
	}
}

func TestRateLimiter_SeparatesClients(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rateLimiterLock.Lock()
	visitors = make(map[string]*visitor)
	perSecond = rate.Limit(0.001)
	burst = 1
	rateLimiterLock.Unlock()

	r := gin.New()
	r.Use(RateLimiter())
	r.GET("/", func(c *gin.Context) { c.String(200, "ok") })

	send := func(ip string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		r.ServeHTTP(w, req)
		return w.Code
	}
	if code := send("10.0.0.1"); code != http.StatusOK {
		t.Fatalf("first client first request: %d", code)
	}
	if code := send("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("first client second request: %d", code)
	}
	if code := send("10.0.0.2"); code != http.StatusOK {
		t.Fatalf("second client first request: %d", code)
	}
}

func TestAbortWithError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/err", func(c *gin.Context) {
		AbortWithError(c, http.StatusBadRequest, "bad stuff", assertErr{})
	})
	r.GET("/err-then-next", func(c *gin.Context) {
		AbortWithError(c, http.StatusBadRequest, "bad stuff", assertErr{})
	}, func(c *gin.Context) {
		c.String(http.StatusOK, "unreachable")
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/err", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("code=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct == "" {
		t.Fatalf("expected content-type set")
	}
	var body dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Message != "bad stuff" || body.ErrorDetails != "boom" {
		t.Fatalf("unexpected body %+v", body)
	}

	// later handlers in the chain are skipped
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/err-then-next", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("chained code=%d", w.Code)
	}
	if strings.Contains(w.Body.String(), "unreachable") {
		t.Fatalf("handler after abort ran: %s", w.Body.String())
	}
}
