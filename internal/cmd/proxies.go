package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/jimezsa/jobcollector/internal/config"
	"github.com/jimezsa/jobcollector/internal/network"
	"golang.org/x/sync/errgroup"
)

const proxyCheckWorkers = 4

type ProxiesCmd struct {
	Check ProxyCheckCmd `cmd:"" help:"Validate proxies against a target URL."`
}

type ProxyCheckCmd struct {
	Target  string `help:"Target URL." default:"https://remoteok.com/api"`
	Timeout int    `help:"Timeout in seconds." default:"15"`
	Proxies string `help:"Comma-separated proxy URLs (default: configured proxies)." env:"JOBCOLLECTOR_PROXIES"`
}

type ProxyCheckResult struct {
	Proxy     string `json:"proxy"`
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

func (p *ProxyCheckCmd) Run(ctx *Context) error {
	proxies, err := config.LoadProxies(p.Proxies)
	if err != nil {
		return err
	}
	if len(proxies) == 0 {
		return fmt.Errorf("no proxies configured")
	}

	timeout := time.Duration(p.Timeout) * time.Second
	results := make([]ProxyCheckResult, len(proxies))

	var g errgroup.Group
	g.SetLimit(proxyCheckWorkers)
	for i, proxy := range proxies {
		i, proxy := i, proxy
		g.Go(func() error {
			results[i] = checkProxy(ctx.context(), proxy, p.Target, timeout)
			return nil
		})
	}
	_ = g.Wait()

	return writeProxyResults(ctx, results)
}

// checkProxy fetches target through proxy alone. Any HTTP answer counts as
// reachable; the status column shows what the target said.
func checkProxy(parent context.Context, proxy string, target string, timeout time.Duration) ProxyCheckResult {
	result := ProxyCheckResult{Proxy: proxy}
	rotator, err := network.NewRotator([]string{proxy}, proxyBanDuration)
	if err != nil {
		return failedCheck(result, err)
	}
	client, err := network.NewClient(rotator, timeout)
	if err != nil {
		return failedCheck(result, err)
	}

	reqCtx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	start := time.Now()
	_, err = client.Get(reqCtx, target, nil)
	result.LatencyMS = time.Since(start).Milliseconds()

	var statusErr *network.StatusError
	switch {
	case err == nil:
		result.Status = "200"
	case errors.As(err, &statusErr):
		result.Status = strconv.Itoa(statusErr.StatusCode)
	default:
		return failedCheck(result, err)
	}
	return result
}

func failedCheck(result ProxyCheckResult, err error) ProxyCheckResult {
	result.Status = "error"
	result.Error = err.Error()
	return result
}

func writeProxyResults(ctx *Context, results []ProxyCheckResult) error {
	if ctx.JSONOutput {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if ctx.PlainText {
		for _, res := range results {
			fmt.Fprintf(ctx.Out, "%s\t%s\t%d\t%s\n", res.Proxy, res.Status, res.LatencyMS, res.Error)
		}
		return nil
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "proxy\tstatus\tlatency_ms\terror")
	for _, res := range results {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", res.Proxy, res.Status, res.LatencyMS, res.Error)
	}
	return tw.Flush()
}
