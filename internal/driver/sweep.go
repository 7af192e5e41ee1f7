package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
)

// ProjectLabel is the label compose puts on every resource it creates.
const ProjectLabel = "com.docker.compose.project"

// Resource is a container or network owned by a compose project.
type Resource struct {
	ID      string
	Name    string
	Project string
}

// Engine is the subset of the container engine the sweeper needs. Listing
// returns only resources that carry ProjectLabel.
type Engine interface {
	Containers(ctx context.Context) ([]Resource, error)
	RemoveContainer(ctx context.Context, id string) error
	Networks(ctx context.Context) ([]Resource, error)
	RemoveNetwork(ctx context.Context, id string) error
}

// DockerEngine implements Engine with the Docker API client.
type DockerEngine struct {
	cli *client.Client
}

// NewDockerEngine connects to the Docker daemon named by the environment,
// or to the first well-known socket found when DOCKER_HOST is unset.
func NewDockerEngine() (*DockerEngine, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if os.Getenv("DOCKER_HOST") == "" {
		if sock := findSocket(); sock != "" {
			opts = append(opts, client.WithHost("unix://"+sock))
		}
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return &DockerEngine{cli: cli}, nil
}

// findSocket returns the first existing Docker socket path, or "".
func findSocket() string {
	candidates := []string{"/var/run/docker.sock"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".docker", "run", "docker.sock"),
			filepath.Join(home, ".colima", "default", "docker.sock"),
		)
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Close releases the client's connections.
func (e *DockerEngine) Close() error {
	return e.cli.Close()
}

func projectFilter() filters.Args {
	return filters.NewArgs(filters.Arg("label", ProjectLabel))
}

// Containers lists compose containers, running or not.
func (e *DockerEngine) Containers(ctx context.Context) ([]Resource, error) {
	list, err := e.cli.ContainerList(ctx, container.ListOptions{All: true, Filters: projectFilter()})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}
	out := make([]Resource, 0, len(list))
	for _, c := range list {
		name := c.ID
		if len(c.Names) > 0 {
			name = strings.TrimPrefix(c.Names[0], "/")
		}
		out = append(out, Resource{ID: c.ID, Name: name, Project: c.Labels[ProjectLabel]})
	}
	return out, nil
}

// RemoveContainer force-removes a container.
func (e *DockerEngine) RemoveContainer(ctx context.Context, id string) error {
	return e.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true, RemoveVolumes: true})
}

// Networks lists compose networks.
func (e *DockerEngine) Networks(ctx context.Context) ([]Resource, error) {
	list, err := e.cli.NetworkList(ctx, network.ListOptions{Filters: projectFilter()})
	if err != nil {
		return nil, fmt.Errorf("list networks: %w", err)
	}
	out := make([]Resource, 0, len(list))
	for _, n := range list {
		out = append(out, Resource{ID: n.ID, Name: n.Name, Project: n.Labels[ProjectLabel]})
	}
	return out, nil
}

// RemoveNetwork removes a network.
func (e *DockerEngine) RemoveNetwork(ctx context.Context, id string) error {
	return e.cli.NetworkRemove(ctx, id)
}

// SweepReport lists what a sweep removed and what it could not.
type SweepReport struct {
	Containers []string
	Networks   []string
	Failed     []error
}

// Sweeper removes leftover resources of compose projects named with a
// prefix.
type Sweeper struct {
	engine Engine
	prefix string
	log    *slog.Logger
}

// NewSweeper returns a Sweeper for projects whose name starts with
// prefix + "-". If logger is nil, slog.Default() is used.
func NewSweeper(engine Engine, prefix string, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{engine: engine, prefix: prefix, log: logger}
}

func (s *Sweeper) owned(r Resource) bool {
	return s.prefix != "" && strings.HasPrefix(r.Project, ProjectName(s.prefix, ""))
}

// Sweep removes owned containers first, then owned networks. Removal
// failures are logged and collected in the report; only a failure to list
// resources is returned as an error.
func (s *Sweeper) Sweep(ctx context.Context) (SweepReport, error) {
	var report SweepReport

	containers, err := s.engine.Containers(ctx)
	if err != nil {
		return report, err
	}
	for _, c := range containers {
		if !s.owned(c) {
			continue
		}
		if err := s.engine.RemoveContainer(ctx, c.ID); err != nil {
			s.log.Warn("remove container failed", "container", c.Name, "project", c.Project, "error", err)
			report.Failed = append(report.Failed, fmt.Errorf("container %s: %w", c.Name, err))
			continue
		}
		s.log.Debug("container removed", "container", c.Name, "project", c.Project)
		report.Containers = append(report.Containers, c.Name)
	}

	networks, err := s.engine.Networks(ctx)
	if err != nil {
		return report, err
	}
	for _, n := range networks {
		if !s.owned(n) {
			continue
		}
		if err := s.engine.RemoveNetwork(ctx, n.ID); err != nil {
			s.log.Warn("remove network failed", "network", n.Name, "project", n.Project, "error", err)
			report.Failed = append(report.Failed, fmt.Errorf("network %s: %w", n.Name, err))
			continue
		}
		s.log.Debug("network removed", "network", n.Name, "project", n.Project)
		report.Networks = append(report.Networks, n.Name)
	}

	s.log.Info("sweep finished",
		"containers", len(report.Containers), "networks", len(report.Networks), "failed", len(report.Failed))
	return report, nil
}

// Err joins the removal failures, or returns nil.
func (r SweepReport) Err() error {
	return errors.Join(r.Failed...)
}
