package lottery

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// DrawRef identifies one draw: a repository at an instant. The instant is
// the "now" for every time-based decision in that draw.
type DrawRef struct {
	Repository string
	Instant    time.Time
}

// Issue is a prize candidate.
type Issue struct {
	Number    int
	Title     string
	URL       string
	Labels    []string
	UpdatedAt time.Time
}

func (i Issue) HasAnyLabel(labels []string) bool {
	for _, want := range labels {
		for _, have := range i.Labels {
			if strings.EqualFold(want, have) {
				return true
			}
		}
	}
	return false
}

// BucketConfig is one candidate pool. Issues qualify when they carry any of
// Labels and were last updated at least Delay ago. A notification about an
// issue stays active for Timeout.
type BucketConfig struct {
	Name    string
	Labels  []string
	Delay   time.Duration
	Timeout time.Duration
}

func (b BucketConfig) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("bucket name is required")
	}
	if len(b.Labels) == 0 {
		return fmt.Errorf("bucket %s: at least one label is required", b.Name)
	}
	if b.Delay < 0 || b.Timeout < 0 {
		return fmt.Errorf("bucket %s: delay and timeout must be >= 0", b.Name)
	}
	return nil
}

// Participation is a participant's opt-in for one bucket. MaxIssues of zero
// means not participating. Labels, when set, narrow the issues the
// participant accepts to those carrying any of them.
type Participation struct {
	MaxIssues int
	Labels    []string
}

func (p Participation) Accepts(issue Issue) bool {
	return len(p.Labels) == 0 || issue.HasAnyLabel(p.Labels)
}

type ParticipantConfig struct {
	Username string
	Timezone string
	Buckets  map[string]Participation
}

// Location resolves the participant timezone. Empty means UTC.
func (p ParticipantConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(p.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC, fmt.Errorf("load timezone %q for %s: %w", name, p.Username, err)
	}
	return loc, nil
}

type RepositoryConfig struct {
	Repository   string
	Buckets      []BucketConfig
	Participants []ParticipantConfig
}

func (c RepositoryConfig) Validate() error {
	if !strings.Contains(c.Repository, "/") {
		return fmt.Errorf("repository %q must be owner/name", c.Repository)
	}
	seen := make(map[string]struct{}, len(c.Buckets))
	for _, b := range c.Buckets {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("repository %s: %w", c.Repository, err)
		}
		if _, dup := seen[b.Name]; dup {
			return fmt.Errorf("repository %s: duplicate bucket %s", c.Repository, b.Name)
		}
		seen[b.Name] = struct{}{}
	}
	users := make(map[string]struct{}, len(c.Participants))
	for _, p := range c.Participants {
		name := strings.ToLower(strings.TrimSpace(p.Username))
		if name == "" {
			return fmt.Errorf("repository %s: participant username is required", c.Repository)
		}
		// GitHub logins are case-insensitive.
		if _, dup := users[name]; dup {
			return fmt.Errorf("repository %s: duplicate participant %s", c.Repository, p.Username)
		}
		users[name] = struct{}{}
	}
	return nil
}

// LongestTimeout is the largest bucket timeout; zero when there are no buckets.
func (c RepositoryConfig) LongestTimeout() time.Duration {
	var longest time.Duration
	for _, b := range c.Buckets {
		longest = max(longest, b.Timeout)
	}
	return longest
}

// LotteryReport is what one participant won in one draw.
type LotteryReport struct {
	Ref      DrawRef
	Username string
	Timezone string
	Buckets  map[string][]Issue
}

func (r LotteryReport) TotalIssues() int {
	total := 0
	for _, issues := range r.Buckets {
		total += len(issues)
	}
	return total
}

func (r LotteryReport) HasWinnings() bool {
	return r.TotalIssues() > 0
}

// BucketNames returns the non-empty buckets in name order.
func (r LotteryReport) BucketNames() []string {
	names := make([]string, 0, len(r.Buckets))
	for name, issues := range r.Buckets {
		if len(issues) > 0 {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Serialize keeps identity only: the instant, the user and issue numbers.
func (r LotteryReport) Serialize() Serialized {
	out := Serialized{
		Instant:  r.Ref.Instant.UTC(),
		Username: r.Username,
		Buckets:  make(map[string][]int, len(r.Buckets)),
	}
	for name, issues := range r.Buckets {
		if len(issues) == 0 {
			continue
		}
		numbers := make([]int, 0, len(issues))
		for _, issue := range issues {
			numbers = append(numbers, issue.Number)
		}
		out.Buckets[name] = numbers
	}
	return out
}

// Serialized is the persisted history form of a LotteryReport.
type Serialized struct {
	Instant  time.Time        `json:"instant"`
	Username string           `json:"username"`
	Buckets  map[string][]int `json:"buckets"`
}
