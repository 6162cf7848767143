package effector

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/BecasLan/BecasScore-sub005/internal/logging"
)

// RESTExecutor is the latency-critical path for ban and kick: pooled
// fasthttp clients hitting the Discord REST API directly, skipping the
// session layer.
type RESTExecutor struct {
	clients []*fasthttp.Client
	next    uint32
	baseURL string
	token   string
}

const restTimeout = 2 * time.Second

func NewRESTExecutor(baseURL, token string, poolSize int) *RESTExecutor {
	if poolSize <= 0 {
		poolSize = 4
	}
	clients := make([]*fasthttp.Client, poolSize)
	for i := range clients {
		clients[i] = &fasthttp.Client{
			MaxConnsPerHost:     512,
			MaxIdleConnDuration: 180 * time.Second,
			ReadTimeout:         restTimeout,
			WriteTimeout:        restTimeout,
			ReadBufferSize:      16384,
			WriteBufferSize:     16384,
		}
	}
	return &RESTExecutor{
		clients: clients,
		baseURL: baseURL,
		token:   token,
	}
}

func (e *RESTExecutor) client() *fasthttp.Client {
	n := atomic.AddUint32(&e.next, 1)
	return e.clients[n%uint32(len(e.clients))]
}

// Ban issues the REST ban call. Returns the round trip in microseconds.
func (e *RESTExecutor) Ban(scopeID, userID, reason string) (int64, error) {
	url := fmt.Sprintf("%s/guilds/%s/bans/%s", e.baseURL, scopeID, userID)
	return e.do("PUT", url, reason, []byte(`{"delete_message_seconds":0}`))
}

// Kick removes the member without a ban entry.
func (e *RESTExecutor) Kick(scopeID, userID, reason string) (int64, error) {
	url := fmt.Sprintf("%s/guilds/%s/members/%s", e.baseURL, scopeID, userID)
	return e.do("DELETE", url, reason, nil)
}

func (e *RESTExecutor) do(method, url, reason string, body []byte) (int64, error) {
	start := time.Now()

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(method)
	req.Header.Set("Authorization", "Bot "+e.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Audit-Log-Reason", reason)
	if body != nil {
		req.SetBody(body)
	}

	if err := e.client().DoTimeout(req, resp, restTimeout); err != nil {
		return 0, err
	}

	elapsedUs := time.Since(start).Microseconds()
	status := resp.StatusCode()
	if status >= 200 && status < 300 {
		logging.Debug("rest %s %s done in %d us, status %d", method, url, elapsedUs, status)
		return elapsedUs, nil
	}
	return elapsedUs, fmt.Errorf("discord returned %d", status)
}
