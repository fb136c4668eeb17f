package file

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/issue-lottery/internal/domain/lottery"
	"github.com/riskibarqy/issue-lottery/internal/platform/logging"
	yaml "go.yaml.in/yaml/v3"
)

type lotteryFile struct {
	Repositories []repositoryEntry `yaml:"repositories"`
}

type repositoryEntry struct {
	Repository   string             `yaml:"repository"`
	Buckets      []bucketEntry      `yaml:"buckets"`
	Participants []participantEntry `yaml:"participants"`
}

type bucketEntry struct {
	Name    string   `yaml:"name"`
	Labels  []string `yaml:"labels"`
	Delay   Duration `yaml:"delay"`
	Timeout Duration `yaml:"timeout"`
}

type participantEntry struct {
	Username string                        `yaml:"username"`
	Timezone string                        `yaml:"timezone"`
	Buckets  map[string]participationEntry `yaml:"buckets"`
}

type participationEntry struct {
	MaxIssues int      `yaml:"max_issues"`
	Labels    []string `yaml:"labels"`
}

// Duration accepts Go durations plus a leading day count, e.g. "3d" or "1d12h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

func ParseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	var days time.Duration
	if idx := strings.IndexByte(raw, 'd'); idx > 0 {
		n, err := strconv.Atoi(raw[:idx])
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", raw)
		}
		days = time.Duration(n) * 24 * time.Hour
		raw = raw[idx+1:]
		if raw == "" {
			return days, nil
		}
	}
	rest, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	return days + rest, nil
}

// ConfigRepository reads the lottery YAML on every List so edits apply on the
// next draw without a restart.
type ConfigRepository struct {
	path   string
	logger *logging.Logger
}

func NewConfigRepository(path string, logger *logging.Logger) *ConfigRepository {
	if logger == nil {
		logger = logging.Default()
	}
	return &ConfigRepository{path: path, logger: logger}
}

func (r *ConfigRepository) List(ctx context.Context) ([]lottery.RepositoryConfig, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read lottery config %s: %w", r.path, err)
	}
	configs, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse lottery config %s: %w", r.path, err)
	}

	out := make([]lottery.RepositoryConfig, 0, len(configs))
	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			r.logger.WarnContext(ctx, "skip invalid repository config", "repository", cfg.Repository, "error", err)
			continue
		}
		out = append(out, cfg)
	}
	return out, nil
}

func Parse(raw []byte) ([]lottery.RepositoryConfig, error) {
	var doc lotteryFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	out := make([]lottery.RepositoryConfig, 0, len(doc.Repositories))
	for _, repo := range doc.Repositories {
		cfg := lottery.RepositoryConfig{
			Repository:   strings.TrimSpace(repo.Repository),
			Buckets:      make([]lottery.BucketConfig, 0, len(repo.Buckets)),
			Participants: make([]lottery.ParticipantConfig, 0, len(repo.Participants)),
		}
		for _, b := range repo.Buckets {
			cfg.Buckets = append(cfg.Buckets, lottery.BucketConfig{
				Name:    strings.TrimSpace(b.Name),
				Labels:  trimAll(b.Labels),
				Delay:   time.Duration(b.Delay),
				Timeout: time.Duration(b.Timeout),
			})
		}
		for _, p := range repo.Participants {
			participant := lottery.ParticipantConfig{
				Username: strings.TrimSpace(p.Username),
				Timezone: strings.TrimSpace(p.Timezone),
				Buckets:  make(map[string]lottery.Participation, len(p.Buckets)),
			}
			for name, part := range p.Buckets {
				participant.Buckets[strings.TrimSpace(name)] = lottery.Participation{
					MaxIssues: part.MaxIssues,
					Labels:    trimAll(part.Labels),
				}
			}
			cfg.Participants = append(cfg.Participants, participant)
		}
		out = append(out, cfg)
	}
	return out, nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
