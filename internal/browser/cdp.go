package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

const (
	defaultDebuggerURL = "http://127.0.0.1:9222"
	pollInterval       = 150 * time.Millisecond
	callDeadline       = 20 * time.Second
)

// CDPDriver opens one isolated page target per session against a Chrome
// DevTools endpoint.
type CDPDriver struct {
	BaseURL string
	Client  *http.Client
}

func NewCDPDriver(baseURL string) *CDPDriver {
	trimmed := strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		trimmed = defaultDebuggerURL
	}
	return &CDPDriver{BaseURL: trimmed}
}

type targetInfo struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// NewSession creates a fresh about:blank target via /json/new, dials its
// websocket, and applies the session fingerprint before handing the page to
// the caller.
func (d *CDPDriver) NewSession(ctx context.Context, opts SessionOptions) (Session, error) {
	target, err := d.createTarget(ctx)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.Dial(ctx, target.WebSocketDebuggerURL, nil)
	if err != nil {
		d.closeTarget(context.Background(), target.ID)
		return nil, fmt.Errorf("dial cdp websocket: %w", err)
	}
	conn.SetReadLimit(16 << 20)

	s := &cdpSession{driver: d, conn: conn, targetID: target.ID}
	if err := s.applyFingerprint(ctx, opts); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (d *CDPDriver) createTarget(ctx context.Context) (targetInfo, error) {
	endpoint := d.BaseURL + "/json/new?about:blank"
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, nil)
	if err != nil {
		return targetInfo{}, fmt.Errorf("build target request: %w", err)
	}
	resp, err := d.httpClient().Do(req)
	if err != nil {
		return targetInfo{}, fmt.Errorf("create cdp target: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return targetInfo{}, fmt.Errorf("create cdp target: status %d", resp.StatusCode)
	}
	var target targetInfo
	if err := json.NewDecoder(resp.Body).Decode(&target); err != nil {
		return targetInfo{}, fmt.Errorf("decode cdp target: %w", err)
	}
	if strings.TrimSpace(target.WebSocketDebuggerURL) == "" {
		return targetInfo{}, errors.New("cdp target has no websocket url")
	}
	return target, nil
}

func (d *CDPDriver) closeTarget(ctx context.Context, targetID string) {
	if targetID == "" {
		return
	}
	endpoint := d.BaseURL + "/json/close/" + targetID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return
	}
	resp, err := d.httpClient().Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}

func (d *CDPDriver) httpClient() *http.Client {
	if d.Client != nil {
		return d.Client
	}
	return http.DefaultClient
}

type cdpSession struct {
	driver    *CDPDriver
	conn      *websocket.Conn
	targetID  string
	idCounter int64
	mu        sync.Mutex
}

type cdpEnvelope struct {
	ID     int64           `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *cdpError       `json:"error,omitempty"`
}

type cdpError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *cdpSession) applyFingerprint(ctx context.Context, opts SessionOptions) error {
	if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
		err := s.call(ctx, "Emulation.setDeviceMetricsOverride", map[string]any{
			"width":             opts.ViewportWidth,
			"height":            opts.ViewportHeight,
			"deviceScaleFactor": 1,
			"mobile":            false,
		}, nil)
		if err != nil {
			return fmt.Errorf("apply viewport: %w", err)
		}
	}
	if ua := strings.TrimSpace(opts.UserAgent); ua != "" {
		if err := s.call(ctx, "Network.enable", nil, nil); err != nil {
			return err
		}
		err := s.call(ctx, "Network.setUserAgentOverride", map[string]any{"userAgent": ua}, nil)
		if err != nil {
			return fmt.Errorf("apply user agent: %w", err)
		}
	}
	return nil
}

func (s *cdpSession) Navigate(ctx context.Context, url string) error {
	if err := s.call(ctx, "Page.enable", nil, nil); err != nil {
		return err
	}
	var response struct {
		ErrorText string `json:"errorText"`
	}
	if err := s.call(ctx, "Page.navigate", map[string]any{"url": url}, &response); err != nil {
		return err
	}
	if response.ErrorText != "" {
		return fmt.Errorf("navigate to %s: %s", url, response.ErrorText)
	}
	return nil
}

// visibleProbe builds a JS expression that finds the first visible match for
// selector and runs body against it. The body sees the element as `el` and
// must return a string; "not_found" is reserved.
func visibleProbe(selector, body string) string {
	return fmt.Sprintf(`(() => {
	const visible = (node) => {
		const style = window.getComputedStyle(node);
		if (!style || style.display === "none" || style.visibility === "hidden") return false;
		const rect = node.getBoundingClientRect();
		return rect.width > 1 && rect.height > 1;
	};
	const el = Array.from(document.querySelectorAll(%q)).find(visible);
	if (!el) return "not_found";
	%s
	})()`, selector, body)
}

func (s *cdpSession) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return errors.New("selector is required")
	}
	if timeout <= 0 {
		timeout = callDeadline
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	expression := visibleProbe(selector, `return "ok";`)
	for {
		value, err := s.EvaluateString(waitCtx, expression)
		if err != nil {
			if waitCtx.Err() != nil {
				return fmt.Errorf("timeout waiting for selector %q", selector)
			}
			return err
		}
		if value == "ok" {
			return nil
		}
		select {
		case <-waitCtx.Done():
			return fmt.Errorf("timeout waiting for selector %q", selector)
		case <-time.After(pollInterval):
		}
	}
}

func (s *cdpSession) Click(ctx context.Context, selector string) error {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return errors.New("selector is required")
	}
	expression := visibleProbe(selector, `
	el.scrollIntoView({block:"center", inline:"center"});
	if (typeof el.focus === "function") el.focus();
	el.click();
	return "ok";`)
	result, err := s.EvaluateString(ctx, expression)
	if err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("click %q failed: %s", selector, result)
	}
	return nil
}

func (s *cdpSession) Type(ctx context.Context, selector, text string) error {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return errors.New("selector is required")
	}
	expression := visibleProbe(selector, `
	el.scrollIntoView({block:"center", inline:"center"});
	el.focus();
	if ("value" in el) {
		el.value = "";
		el.dispatchEvent(new Event("input", {bubbles: true}));
	}
	return "ok";`)
	result, err := s.EvaluateString(ctx, expression)
	if err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("type into %q failed: %s", selector, result)
	}
	if err := s.call(ctx, "Input.insertText", map[string]any{"text": text}, nil); err != nil {
		return fmt.Errorf("insert text: %w", err)
	}
	return nil
}

func (s *cdpSession) PressEnter(ctx context.Context, selector string) error {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return errors.New("selector is required")
	}
	expression := visibleProbe(selector, `
	el.scrollIntoView({block:"center", inline:"center"});
	el.focus();
	return "ok";`)
	result, err := s.EvaluateString(ctx, expression)
	if err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("focus %q failed: %s", selector, result)
	}
	for _, eventType := range []string{"keyDown", "char", "keyUp"} {
		payload := map[string]any{
			"type":                  eventType,
			"key":                   "Enter",
			"code":                  "Enter",
			"windowsVirtualKeyCode": 13,
			"nativeVirtualKeyCode":  13,
		}
		if eventType == "char" {
			payload["text"] = "\r"
			payload["unmodifiedText"] = "\r"
		}
		if err := s.call(ctx, "Input.dispatchKeyEvent", payload, nil); err != nil {
			return fmt.Errorf("dispatch enter %s: %w", eventType, err)
		}
	}
	return nil
}

func (s *cdpSession) Scroll(ctx context.Context, pixels int) error {
	if pixels == 0 {
		pixels = 600
	}
	_, err := s.Evaluate(ctx, fmt.Sprintf(`window.scrollBy({top: %d, behavior: "smooth"})`, pixels))
	return err
}

func (s *cdpSession) Evaluate(ctx context.Context, expression string) (any, error) {
	if err := s.call(ctx, "Runtime.enable", nil, nil); err != nil {
		return nil, err
	}
	var response struct {
		Result struct {
			Value any `json:"value"`
		} `json:"result"`
		ExceptionDetails *struct {
			Text string `json:"text"`
		} `json:"exceptionDetails"`
	}
	err := s.call(ctx, "Runtime.evaluate", map[string]any{
		"expression":    expression,
		"returnByValue": true,
	}, &response)
	if err != nil {
		return nil, err
	}
	if response.ExceptionDetails != nil {
		return nil, fmt.Errorf("evaluate failed: %s", response.ExceptionDetails.Text)
	}
	return response.Result.Value, nil
}

func (s *cdpSession) EvaluateString(ctx context.Context, expression string) (string, error) {
	value, err := s.Evaluate(ctx, expression)
	if err != nil {
		return "", err
	}
	if value == nil {
		return "", nil
	}
	return fmt.Sprint(value), nil
}

func (s *cdpSession) CurrentURL(ctx context.Context) (string, error) {
	return s.EvaluateString(ctx, `String(window.location.href || "")`)
}

func (s *cdpSession) CaptureScreenshot(ctx context.Context) (string, error) {
	if err := s.call(ctx, "Page.enable", nil, nil); err != nil {
		return "", err
	}
	var response struct {
		Data string `json:"data"`
	}
	if err := s.call(ctx, "Page.captureScreenshot", map[string]any{"format": "png"}, &response); err != nil {
		return "", err
	}
	return response.Data, nil
}

func (s *cdpSession) Close() error {
	err := s.conn.Close(websocket.StatusNormalClosure, "session closed")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.driver.closeTarget(ctx, s.targetID)
	return err
}

// call performs one id-matched request/response exchange. Unsolicited event
// envelopes are skipped until the matching id arrives.
func (s *cdpSession) call(ctx context.Context, method string, params any, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.idCounter++
	requestID := s.idCounter

	payload := map[string]any{
		"id":     requestID,
		"method": method,
	}
	if params != nil {
		payload["params"] = params
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode cdp request: %w", err)
	}

	deadline := time.Now().Add(callDeadline)
	if explicit, ok := ctx.Deadline(); ok {
		deadline = explicit
	}
	writeCtx, cancelWrite := context.WithDeadline(ctx, deadline)
	defer cancelWrite()
	if err := s.conn.Write(writeCtx, websocket.MessageText, raw); err != nil {
		return fmt.Errorf("write cdp request: %w", err)
	}

	for {
		readCtx, cancelRead := context.WithDeadline(ctx, deadline)
		_, message, err := s.conn.Read(readCtx)
		cancelRead()
		if err != nil {
			return fmt.Errorf("read cdp response: %w", err)
		}

		var env cdpEnvelope
		if err := json.Unmarshal(message, &env); err != nil {
			continue
		}
		if env.ID != requestID {
			continue
		}
		if env.Error != nil {
			return fmt.Errorf("cdp %s failed (%d): %s", method, env.Error.Code, env.Error.Message)
		}
		if out != nil && len(env.Result) > 0 {
			if err := json.Unmarshal(env.Result, out); err != nil {
				return fmt.Errorf("decode %s response: %w", method, err)
			}
		}
		return nil
	}
}
