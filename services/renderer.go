package services

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"slide-deck-platform/internal/config"
	"slide-deck-platform/internal/logger"
)

// RendererProbe checks whether the external document renderer (LibreOffice)
// is present and operable, attempting a best-effort install when it is not.
// Probe never returns an error: every failure degrades to "unavailable".
type RendererProbe struct {
	config *config.Config
}

func NewRendererProbe(cfg *config.Config) *RendererProbe {
	return &RendererProbe{config: cfg}
}

// Probe returns the final availability of the renderer. It is called at
// process start and again at the beginning of every conversion request;
// availability is deliberately not cached because the host may self-heal
// (or lose the binary) between requests.
func (p *RendererProbe) Probe(ctx context.Context) bool {
	if p.check(ctx) {
		return true
	}

	if !p.config.InstallRenderer {
		logger.Warn("Renderer not found and auto-install disabled", "binary", p.config.RendererBin)
		return false
	}

	logger.Info("Renderer not found, attempting install", "binary", p.config.RendererBin)
	p.install(ctx)

	return p.check(ctx)
}

// check looks for the binary on PATH and asks it for its version string
func (p *RendererProbe) check(ctx context.Context) bool {
	bin, err := exec.LookPath(p.config.RendererBin)
	if err != nil {
		return false
	}

	versionCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	out, err := exec.CommandContext(versionCtx, bin, "--version").CombinedOutput()
	if err != nil {
		logger.Warn("Renderer version check failed", "binary", bin, "error", err.Error())
		return false
	}

	logger.Info("Renderer available", "binary", bin, "version", strings.TrimSpace(string(out)))
	return true
}

// install attempts a host package-manager install. Output is logged as
// diagnostics; failure is not an error, the caller re-checks afterwards.
func (p *RendererProbe) install(ctx context.Context) {
	installCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	out, err := exec.CommandContext(installCtx, "apt-get", "install", "-y", "libreoffice").CombinedOutput()
	if err != nil {
		logger.Warn("Renderer install failed", "error", err.Error(), "output", tail(string(out), 500))
		return
	}
	logger.Info("Renderer install completed", "output", tail(string(out), 500))
}

// tail keeps log lines bounded when subprocess output is large
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
