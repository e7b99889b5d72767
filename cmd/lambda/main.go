package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"

	"github.com/tomplumbs/landing-page/cmd/mainconfig"
	appconfig "github.com/tomplumbs/landing-page/internal/config"
	"github.com/tomplumbs/landing-page/pkg/logging"
)

// Headers a client could use to claim another address. API Gateway passes
// them through untouched.
var forwardingHeaders = []string{"x-forwarded-for", "x-real-ip", "true-client-ip"}

func main() {
	cfg, err := appconfig.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.New(cfg.EffectiveLogLevel())

	// pinClientIP rewrites X-Real-Ip from the gateway's SourceIP, so the
	// router can read it.
	cfg.TrustProxyHeaders = true
	app, err := mainconfig.BuildApp(context.Background(), cfg, logger, nil)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	lambda.Start(newProxy(app.Handler).handle)
}

type proxy struct {
	adapter *httpadapter.HandlerAdapterV2
}

func newProxy(handler http.Handler) *proxy {
	return &proxy{adapter: httpadapter.NewV2(handler)}
}

// handle replays an API Gateway HTTP API event through the router.
func (p *proxy) handle(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	if evt.IsBase64Encoded {
		if _, err := base64.StdEncoding.DecodeString(evt.Body); err != nil {
			return events.APIGatewayV2HTTPResponse{
				StatusCode: http.StatusBadRequest,
				Headers:    map[string]string{"Content-Type": "application/json"},
				Body:       `{"success":false,"message":"Invalid request body"}`,
			}, nil
		}
	}
	return p.adapter.ProxyWithContext(ctx, pinClientIP(evt))
}

// pinClientIP drops client-supplied forwarding headers and sets X-Real-Ip to
// the address API Gateway saw. The event's header map is copied, not mutated.
func pinClientIP(evt events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPRequest {
	headers := make(map[string]string, len(evt.Headers)+1)
	for k, v := range evt.Headers {
		if isForwardingHeader(k) {
			continue
		}
		headers[k] = v
	}
	if ip := strings.TrimSpace(evt.RequestContext.HTTP.SourceIP); ip != "" {
		headers["x-real-ip"] = ip
	}
	if ua := evt.RequestContext.HTTP.UserAgent; ua != "" && headerValue(headers, "User-Agent") == "" {
		headers["user-agent"] = ua
	}
	evt.Headers = headers
	return evt
}

func isForwardingHeader(key string) bool {
	for _, h := range forwardingHeaders {
		if strings.EqualFold(key, h) {
			return true
		}
	}
	return false
}

func headerValue(headers map[string]string, key string) string {
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
