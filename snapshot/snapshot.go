package snapshot

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"estate-recommender/config"
	"estate-recommender/utils"
)

const (
	viewportWidth  = 1440
	viewportHeight = 900
	pngQuality     = 90
)

// View is one filtered dashboard page to capture.
type View struct {
	Name  string
	Query url.Values
}

// DefaultViews returns one view per filter type, each selecting everything.
func DefaultViews() []View {
	return []View{
		{Name: "price", Query: url.Values{"type": {"price"}}},
		{Name: "grade", Query: url.Values{"type": {"grade"}}},
		{Name: "recommendation", Query: url.Values{"type": {"recommendation"}}},
	}
}

// URL resolves the view against the dashboard base URL.
func (v View) URL(base string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("snapshot: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("snapshot: base url %q must be absolute", base)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	u.RawQuery = v.Query.Encode()
	return u.String(), nil
}

// FileName is the PNG name the view is written to.
func (v View) FileName() string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '_'
	}, v.Name)
	if name == "" {
		name = "view"
	}
	return "dashboard_" + name + ".png"
}

// Result describes one captured view.
type Result struct {
	View  string
	Path  string
	Bytes int
	Err   error
}

// Capturer drives headless Chrome over dashboard views.
type Capturer struct {
	logger    *utils.Logger
	pool      *utils.WorkerPool
	retry     *utils.RetryConfig
	outDir    string
	chromeBin string
	settle    time.Duration

	mu      sync.Mutex
	results []Result
}

// New creates a Capturer from cfg.
func New(cfg *config.Config, logger *utils.Logger) *Capturer {
	return &Capturer{
		logger: logger,
		pool:   utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		outDir:    cfg.SnapshotDir,
		chromeBin: cfg.ChromeBin,
		settle:    2 * time.Second,
	}
}

// Capture screenshots every view of the dashboard at baseURL. Individual
// failures are reported in the results; the error is non-nil only when the
// browser cannot start or no view succeeded.
func (c *Capturer) Capture(ctx context.Context, baseURL string, views []View) ([]Result, error) {
	if len(views) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(c.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot: create %s: %w", c.outDir, err)
	}

	chromeBin := c.chromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	c.logger.Info("[snapshot] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(viewportWidth, viewportHeight),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	// Start the browser once so every tab shares it.
	if err := chromedp.Run(browserCtx); err != nil {
		return nil, fmt.Errorf("snapshot: start browser: %w", err)
	}

	c.results = c.results[:0]
	for _, view := range views {
		v := view
		c.pool.Submit(func() {
			res := c.captureView(browserCtx, baseURL, v)
			c.mu.Lock()
			c.results = append(c.results, res)
			c.mu.Unlock()
		})
	}
	c.pool.Wait()

	results := append([]Result(nil), c.results...)
	sort.SliceStable(results, func(i, j int) bool { return results[i].View < results[j].View })

	ok := 0
	for _, r := range results {
		if r.Err == nil {
			ok++
		}
	}
	c.logger.Info("[snapshot] Captured %d/%d views into %s", ok, len(results), c.outDir)
	if ok == 0 {
		return results, fmt.Errorf("snapshot: no view captured: %w", results[0].Err)
	}
	return results, nil
}

func (c *Capturer) captureView(browserCtx context.Context, baseURL string, v View) Result {
	res := Result{View: v.Name, Path: filepath.Join(c.outDir, v.FileName())}

	target, err := v.URL(baseURL)
	if err != nil {
		res.Err = err
		return res
	}

	var buf []byte
	res.Err = c.retry.DoContext(browserCtx, "snapshot-"+v.Name, func() error {
		tabCtx, cancel := chromedp.NewContext(browserCtx)
		defer cancel()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, 60*time.Second)
		defer cancelTimeout()

		return chromedp.Run(tabCtx,
			chromedp.Navigate(target),
			chromedp.WaitVisible("body", chromedp.ByQuery),
			// Charts live in iframes and render after load.
			chromedp.Sleep(c.settle),
			chromedp.FullScreenshot(&buf, pngQuality),
		)
	})
	if res.Err != nil {
		c.logger.Warn("[snapshot] %s failed: %v", v.Name, res.Err)
		return res
	}

	if err := os.WriteFile(res.Path, buf, 0o644); err != nil {
		res.Err = fmt.Errorf("snapshot: write %s: %w", res.Path, err)
		return res
	}
	res.Bytes = len(buf)
	c.logger.Debug("[snapshot] %s -> %s (%d bytes)", target, res.Path, res.Bytes)
	return res
}

// findChromeBinary locates a Chrome/Chromium binary, falling back to
// chromedp's own lookup when nothing is found.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	for _, name := range []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	for _, p := range []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
