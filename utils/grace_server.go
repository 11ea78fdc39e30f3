package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const (
	defaultReadTimeout  = 60 * time.Second
	defaultWriteTimeout = defaultReadTimeout
	shutdownTimeout     = 30 * time.Second

	gracefulEnvKey   = "BLOGICUM_GRACEFUL"
	gracefulEnvValue = gracefulEnvKey + "=1"
	inheritedFD      = 3
)

// GraceServer serves HTTP until ctx is cancelled or SIGTERM/SIGINT arrives,
// then drains in-flight requests. SIGUSR2 hands the listener to a fresh
// process and shuts this one down.
type GraceServer struct {
	srv      *http.Server
	listener net.Listener
	log      *zap.Logger
	done     chan struct{}
}

// NewGraceServer wraps handler in an http.Server bound to addr.
func NewGraceServer(addr string, handler http.Handler, log *zap.Logger) *GraceServer {
	if log == nil {
		log = zap.NewNop()
	}
	return &GraceServer{
		srv: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  defaultReadTimeout,
			WriteTimeout: defaultWriteTimeout,
		},
		log:  log,
		done: make(chan struct{}),
	}
}

// Run listens and blocks until the server has shut down.
func (g *GraceServer) Run(ctx context.Context) error {
	ln, err := g.listen()
	if err != nil {
		return err
	}
	g.listener = ln
	g.log.Info("http server listening", zap.String("addr", ln.Addr().String()))

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGINT, syscall.SIGUSR2)
	defer signal.Stop(sigs)
	go g.watch(ctx, sigs)

	err = g.srv.Serve(ln)
	<-g.done
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (g *GraceServer) listen() (net.Listener, error) {
	if os.Getenv(gracefulEnvKey) != "" {
		ln, err := net.FileListener(os.NewFile(inheritedFD, "listener"))
		if err != nil {
			return nil, fmt.Errorf("inherit listener: %w", err)
		}
		return ln, nil
	}
	addr := g.srv.Addr
	if addr == "" {
		addr = ":http"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return ln, nil
}

func (g *GraceServer) watch(ctx context.Context, sigs <-chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			g.log.Info("context cancelled, shutting down http server")
			g.shutdown()
			return
		case sig := <-sigs:
			switch sig {
			case syscall.SIGUSR2:
				pid, err := g.fork()
				if err != nil {
					g.log.Error("restart failed, continuing to serve", zap.Error(err))
					continue
				}
				g.log.Info("restarted in new process", zap.Int("pid", pid))
			default:
				g.log.Info("signal received, shutting down http server", zap.String("signal", sig.String()))
			}
			g.shutdown()
			return
		}
	}
}

func (g *GraceServer) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := g.srv.Shutdown(ctx); err != nil {
		g.log.Error("http server shutdown", zap.Error(err))
	} else {
		g.log.Info("http server stopped")
	}
	close(g.done)
}

// fork starts a copy of this binary that inherits the listening socket.
func (g *GraceServer) fork() (int, error) {
	tcp, ok := g.listener.(*net.TCPListener)
	if !ok {
		return 0, errors.New("listener is not a TCP listener")
	}
	file, err := tcp.File()
	if err != nil {
		return 0, fmt.Errorf("listener file: %w", err)
	}
	defer file.Close()

	env := make([]string, 0, len(os.Environ())+1)
	for _, e := range os.Environ() {
		if e != gracefulEnvValue {
			env = append(env, e)
		}
	}
	env = append(env, gracefulEnvValue)

	pid, err := syscall.ForkExec(os.Args[0], os.Args, &syscall.ProcAttr{
		Env:   env,
		Files: []uintptr{os.Stdin.Fd(), os.Stdout.Fd(), os.Stderr.Fd(), file.Fd()},
	})
	if err != nil {
		return 0, fmt.Errorf("fork exec: %w", err)
	}
	return pid, nil
}
