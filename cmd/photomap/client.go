package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"photomap/internal/api"
	"photomap/internal/config"
	"photomap/internal/server"
)

const (
	pingTimeout        = 500 * time.Millisecond
	serverStartTimeout = 3 * time.Second
	serverStopTimeout  = 3 * time.Second
	serverPollInterval = 100 * time.Millisecond
	startupLogTail     = 512
)

// withClient runs fn against the configured server, starting a private
// server for the duration of fn when none answers on a loopback URL.
func withClient(cfg *config.Config, fn func(*api.Client) error) error {
	client := api.NewClient(cfg.APIURL)

	stop, err := ensureServer(cfg, client)
	if err != nil {
		return err
	}
	defer stop()

	return fn(client)
}

func ensureServer(cfg *config.Config, client *api.Client) (func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx); err == nil {
		return func() {}, nil
	}

	// ListenAddr refuses remote hosts; never spawn a server for one.
	if _, err := server.ListenAddr(cfg.APIURL); err != nil {
		return nil, fmt.Errorf("no photomap server at %s: %w", cfg.APIURL, err)
	}

	child, err := startServerProcess(cfg)
	if err != nil {
		return nil, err
	}
	if err := waitForServer(client, serverStartTimeout); err != nil {
		child.kill()
		return nil, child.annotate(err)
	}
	return child.stop, nil
}

// serverProcess is an auto-started `photomap srv`.
type serverProcess struct {
	cmd    *exec.Cmd
	stderr *bytes.Buffer
	done   chan struct{}
	once   sync.Once
}

func startServerProcess(cfg *config.Config) (*serverProcess, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(exe, "srv")
	cmd.Env = append(os.Environ(), serverEnv(cfg)...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start photomap srv: %w", err)
	}

	p := &serverProcess{cmd: cmd, stderr: stderr, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

// serverEnv pins the child to the same database and location source the
// parent resolved, regardless of which config files the child would read.
func serverEnv(cfg *config.Config) []string {
	env := []string{
		"PHOTOMAP_DB=" + cfg.DBPath,
		"PHOTOMAP_API_URL=" + cfg.APIURL,
		"PHOTOMAP_LOCATION_SOURCE=" + cfg.Location.Source,
	}
	if cfg.Location.File != "" {
		env = append(env, "PHOTOMAP_LOCATION_FILE="+cfg.Location.File)
	}
	return env
}

func (p *serverProcess) stop() {
	p.once.Do(func() {
		_ = p.cmd.Process.Signal(os.Interrupt)
		select {
		case <-p.done:
		case <-time.After(serverStopTimeout):
			_ = p.cmd.Process.Kill()
			<-p.done
		}
	})
}

func (p *serverProcess) kill() {
	p.once.Do(func() {
		_ = p.cmd.Process.Kill()
		<-p.done
	})
}

// annotate appends the tail of the child's stderr, which usually names
// the real cause (locked database, bad location config).
func (p *serverProcess) annotate(err error) error {
	tail := strings.TrimSpace(p.stderr.String())
	if tail == "" {
		return err
	}
	if len(tail) > startupLogTail {
		tail = tail[len(tail)-startupLogTail:]
	}
	return fmt.Errorf("%w\nserver output:\n%s", err, tail)
}

func waitForServer(client *api.Client, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		err := client.Ping(ctx)
		cancel()
		if err == nil {
			return nil
		}
		if !isConnRefused(err) {
			// If port is in use but API is not ours, surface the error.
			return err
		}
		time.Sleep(serverPollInterval)
	}
	return errors.New("server did not start in time")
}

func isConnRefused(err error) bool {
	var netErr *net.OpError
	return errors.As(err, &netErr)
}
