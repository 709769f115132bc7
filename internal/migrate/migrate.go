// Package migrate drives a full migration run: for every enabled Trac
// environment it converts the wiki onto a git branch and imports the
// tickets as issues, keeping issue numbers aligned with ticket ids.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/freakybytes/tracmigrate"
	"github.com/freakybytes/tracmigrate/internal/config"
	"github.com/freakybytes/tracmigrate/internal/github"
	"github.com/freakybytes/tracmigrate/internal/gitutil"
	"github.com/freakybytes/tracmigrate/internal/trac"
)

// Sentinel errors for migration runs.
var (
	ErrRepoHasIssues  = errors.New("repository already has issues")
	ErrNoEnvironments = errors.New("no enabled environments")
)

// Options selects which parts of a migration run.
type Options struct {
	DryRun          bool   // convert everything, write and push nothing
	CreateRepos     bool   // create missing repositories
	NoWiki          bool   // skip wiki migration
	NoTickets       bool   // skip ticket migration
	NoPush          bool   // commit locally, do not push
	ForceTickets    bool   // import even into a repository with issues
	ContinueTickets bool   // resume after the highest existing issue
	WorkDir         string // fallback directory for local clones
}

// Migrator runs migrations for all environments of one configuration.
type Migrator struct {
	cfg  *config.Config
	gh   *github.Client
	opts Options
	log  glog.Logger
}

// New creates a Migrator. The GitHub client may be nil for dry runs.
func New(cfg *config.Config, gh *github.Client, opts Options, log glog.Logger) *Migrator {
	if log == nil {
		log = glog.NewLogger()
	}
	return &Migrator{cfg: cfg, gh: gh, opts: opts, log: log}
}

// Run migrates every enabled environment. A failing environment aborts the
// run; everything committed so far stays in place so the run can resume.
func (m *Migrator) Run(ctx context.Context) error {
	var ran int
	for _, env := range m.cfg.Environments {
		if !env.Enabled {
			m.log.Debug("skipping disabled environment", "env", env.TracID)
			continue
		}
		ran++
		if err := m.MigrateProject(ctx, env); err != nil {
			return fmt.Errorf("environment %s: %w", env.TracID, err)
		}
	}
	if ran == 0 {
		return ErrNoEnvironments
	}
	return nil
}

// MigrateProject migrates one environment.
func (m *Migrator) MigrateProject(ctx context.Context, env config.Environment) error {
	m.log.Info("migrating environment", "env", env.TracID, "project", env.GitHubProject)

	owner, name, err := github.ParseRepoName(env.GitHubProject, m.cfg.GitHub.DefaultNamespace)
	if err != nil {
		return err
	}

	tc, err := m.tracClient(env)
	if err != nil {
		return err
	}

	if !m.opts.DryRun && m.opts.CreateRepos {
		if _, err := m.gh.EnsureRepo(ctx, owner, name); err != nil {
			return err
		}
	}

	if !m.opts.NoWiki {
		if err := m.migrateWiki(ctx, env, tc, owner, name); err != nil {
			return err
		}
	}
	if !m.opts.NoTickets {
		if err := m.migrateTickets(ctx, env, tc, owner, name); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) tracClient(env config.Environment) (*trac.Client, error) {
	opts := []trac.ClientOption{
		trac.WithTimeout(m.cfg.TracTimeout()),
		trac.WithLogger(m.log),
	}
	if m.cfg.Trac.User != "" {
		opts = append(opts, trac.WithBasicAuth(m.cfg.Trac.User, m.cfg.Trac.Password))
	}
	return trac.NewClient(m.cfg.Trac.BaseURL, env.TracID, opts...)
}

// newConverter builds the markup converter for one environment, seeded
// with the other environments' inter-Trac prefixes and its known wiki
// pages. The environment's own prefix is left out so links into the same
// project stay relative.
func (m *Migrator) newConverter(env config.Environment, pages []string) *tracmigrate.Converter {
	prefixes := m.cfg.PrefixMap()
	delete(prefixes, env.TracID)
	return tracmigrate.NewConverter(
		tracmigrate.WithInterTracPrefixes(prefixes),
		tracmigrate.WithKnownPages(pages),
	)
}

func (m *Migrator) repoDir(env config.Environment) string {
	if env.GitRepository != "" {
		return env.GitRepository
	}
	return filepath.Join(m.opts.WorkDir, env.TracID)
}

// migrateWiki converts all wiki pages onto an orphan branch of the local
// repository and pushes it. A page that fails to convert is committed
// unconverted rather than lost.
func (m *Migrator) migrateWiki(ctx context.Context, env config.Environment, tc *trac.Client, owner, name string) error {
	pages, err := tc.ListWikiPages(ctx)
	if err != nil {
		return err
	}

	conv := m.newConverter(env, pages)

	var keep []string
	for _, page := range pages {
		if m.cfg.IsFilteredPage(page) {
			m.log.Debug("skipping stock page", "page", page)
			continue
		}
		keep = append(keep, page)
	}
	sort.Strings(keep)

	if m.opts.DryRun {
		for _, page := range keep {
			text, err := tc.GetWikiPage(ctx, page)
			if err != nil {
				return err
			}
			if _, err := conv.Convert(text); err != nil {
				m.log.Warn("conversion failed, page would be kept unconverted", "page", page, "error", err)
			}
		}
		m.log.Info("dry run, wiki not written", "env", env.TracID, "pages", len(keep))
		return nil
	}

	repo, err := openOrInit(m.repoDir(env))
	if err != nil {
		return err
	}

	branch := m.cfg.GitHub.WikiBranch
	if err := repo.CheckoutOrphan(branch); err != nil {
		if errors.Is(err, gitutil.ErrBranch) {
			m.log.Warn("wiki branch exists, skipping wiki migration", "env", env.TracID, "branch", branch)
			return nil
		}
		return err
	}

	for _, page := range keep {
		text, err := tc.GetWikiPage(ctx, page)
		if err != nil {
			return err
		}
		converted, err := conv.Convert(text)
		if err != nil {
			m.log.Warn("conversion failed, keeping page unconverted", "page", page, "error", err)
			converted = text
		}
		if err := repo.WriteFile(page+".md", []byte(converted)); err != nil {
			return err
		}
		if m.cfg.Trac.KeepWikiFiles {
			if err := repo.WriteFile(page+".wiki", []byte(text)); err != nil {
				return err
			}
		}
		if err := m.writeAttachments(ctx, tc, repo, page); err != nil {
			return err
		}
	}

	start := m.cfg.Trac.WikiStartPage
	if containsPage(keep, start) {
		if err := repo.WriteSymlink("index.md", start+".md"); err != nil {
			return err
		}
	}

	if err := repo.Commit("converted wiki pages"); err != nil {
		return err
	}
	m.log.Info("wiki converted", "env", env.TracID, "pages", len(keep), "branch", branch)

	return m.pushRepo(repo, owner, name, branch)
}

func (m *Migrator) writeAttachments(ctx context.Context, tc *trac.Client, repo *gitutil.Repo, page string) error {
	attachments, err := tc.ListWikiAttachments(ctx, page)
	if err != nil {
		return err
	}
	for _, att := range attachments {
		data, err := tc.GetWikiAttachment(ctx, att)
		if err != nil {
			return err
		}
		if err := repo.WriteFile(att, data); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) pushRepo(repo *gitutil.Repo, owner, name, branch string) error {
	if m.opts.NoPush {
		m.log.Info("push disabled, branch only committed locally", "branch", branch)
		return nil
	}
	url := fmt.Sprintf("https://github.com/%s/%s.git", owner, name)
	if err := repo.EnsureRemote("origin", url); err != nil {
		return err
	}
	return repo.Push("origin", branch, m.cfg.GitHub.Token)
}

// migrateTickets imports all tickets as issues, in ascending ticket order.
// Gaps in the id sequence become closed placeholder issues so the numbers
// keep matching.
func (m *Migrator) migrateTickets(ctx context.Context, env config.Environment, tc *trac.Client, owner, name string) error {
	ids, err := tc.ListTickets(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		m.log.Info("no tickets to migrate", "env", env.TracID)
		return nil
	}
	sort.Ints(ids)

	conv := m.newConverter(env, nil)
	tracURL := strings.TrimRight(m.cfg.Trac.BaseURL, "/") + "/" + env.TracID

	if m.opts.DryRun {
		for _, id := range ids {
			ticket, err := tc.GetTicket(ctx, id)
			if err != nil {
				return err
			}
			buildIssueBody(ticket, tracURL, conv)
		}
		m.log.Info("dry run, tickets not imported", "env", env.TracID, "tickets", len(ids))
		return nil
	}

	next := 1
	if m.opts.ContinueTickets {
		highest, err := m.gh.HighestIssueNumber(ctx, owner, name)
		if err != nil {
			return err
		}
		next = highest + 1
		m.log.Info("continuing ticket import", "env", env.TracID, "from", next)
	} else {
		hasIssues, err := m.gh.AnyIssues(ctx, owner, name)
		if err != nil {
			return err
		}
		if hasIssues && !m.opts.ForceTickets {
			return fmt.Errorf("%w: %s/%s, issue numbers would not match ticket ids", ErrRepoHasIssues, owner, name)
		}
	}

	for _, id := range ids {
		if id < next {
			continue
		}
		// Deleted tickets left a gap; fill it so numbering stays aligned.
		for ; next < id; next++ {
			if err := m.gh.CreateDeletedTicketIssue(ctx, owner, name, next); err != nil {
				return err
			}
			m.log.Debug("created placeholder for deleted ticket", "ticket", next)
		}
		if err := m.migrateTicket(ctx, tc, conv, owner, name, id, tracURL); err != nil {
			return err
		}
		next = id + 1
	}
	m.log.Info("tickets imported", "env", env.TracID, "tickets", len(ids))
	return nil
}

func (m *Migrator) migrateTicket(ctx context.Context, tc *trac.Client, conv *tracmigrate.Converter, owner, name string, id int, tracURL string) error {
	ticket, err := tc.GetTicket(ctx, id)
	if err != nil {
		return err
	}

	labels, err := m.ticketLabels(ctx, owner, name, ticket)
	if err != nil {
		return err
	}

	title := ticket.Attr("summary")
	if title == "" {
		title = fmt.Sprintf("Ticket #%d", id)
	}
	body := buildIssueBody(ticket, tracURL, conv)

	number, err := m.gh.CreateIssue(ctx, owner, name, title, body, labels)
	if err != nil {
		return err
	}
	if number != id {
		m.log.Warn("issue number does not match ticket id", "ticket", id, "issue", number)
	}

	entries, err := tc.GetTicketChangeLog(ctx, id)
	if err != nil {
		return err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Time.Before(entries[j].Time.Time)
	})
	for _, entry := range entries {
		if entry.Field != "comment" || strings.TrimSpace(entry.NewValue) == "" {
			continue
		}
		comment := buildCommentBody(&entry, conv)
		if err := m.gh.CreateComment(ctx, owner, name, number, comment); err != nil {
			return err
		}
	}

	if issueState(ticket.Attr("status")) == "closed" {
		if err := m.gh.CloseIssue(ctx, owner, name, number); err != nil {
			return err
		}
	}
	m.log.Debug("ticket migrated", "ticket", id, "issue", number)
	return nil
}

// ticketLabels maps ticket attributes to label names, creating each label
// once per repository.
func (m *Migrator) ticketLabels(ctx context.Context, owner, name string, ticket *trac.Ticket) ([]string, error) {
	labels := collectLabels(ticket)
	for _, label := range labels {
		if _, err := m.gh.GetOrCreateLabel(ctx, owner, name, label); err != nil {
			return nil, err
		}
	}
	return labels, nil
}

// labelAttrs are the ticket attributes whose values become labels.
var labelAttrs = []string{"component", "type", "milestone", "version", "priority", "resolution"}

func collectLabels(ticket *trac.Ticket) []string {
	labels := []string{github.MigratedLabel}
	seen := map[string]struct{}{github.MigratedLabel: {}}

	add := func(value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		if _, ok := seen[value]; ok {
			return
		}
		seen[value] = struct{}{}
		labels = append(labels, value)
	}

	for _, attr := range labelAttrs {
		add(ticket.Attr(attr))
	}
	for _, kw := range strings.FieldsFunc(ticket.Attr("keywords"), func(r rune) bool {
		return r == ' ' || r == ','
	}) {
		add(kw)
	}
	return labels
}

// issueState maps a ticket status to an issue state.
func issueState(status string) string {
	if status == "closed" {
		return "closed"
	}
	return "open"
}

// buildIssueBody renders the issue text: a provenance header, the ticket
// metadata and the converted description. Conversion failures fall back to
// the raw markup instead of losing the ticket.
func buildIssueBody(ticket *trac.Ticket, tracURL string, conv *tracmigrate.Converter) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Migrated from %s/ticket/%d*\n\n", tracURL, ticket.ID)
	fmt.Fprintf(&b, "Original reporter: **%s**\n", orDash(ticket.Attr("reporter")))
	fmt.Fprintf(&b, "Reported at: %s\n\n", ticket.Created.Format("2006-01-02 15:04"))

	description := ticket.Attr("description")
	converted, err := conv.Convert(description)
	if err != nil {
		converted = description
	}
	b.WriteString(converted)
	return b.String()
}

// buildCommentBody renders one change-log comment.
func buildCommentBody(entry *trac.ChangeEntry, conv *tracmigrate.Converter) string {
	converted, err := conv.Convert(entry.NewValue)
	if err != nil {
		converted = entry.NewValue
	}
	return fmt.Sprintf("*Original comment by **%s** on %s*\n\n%s",
		orDash(entry.Author), entry.Time.Format("2006-01-02 15:04"), converted)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func containsPage(pages []string, name string) bool {
	for _, p := range pages {
		if p == name {
			return true
		}
	}
	return false
}

func openOrInit(dir string) (*gitutil.Repo, error) {
	repo, err := gitutil.Open(dir)
	if err == nil {
		return repo, nil
	}
	return gitutil.Init(dir)
}
