// Command scraper is the job-search CLI. Every subcommand prints a JSON
// envelope on stdout so callers can branch on status and code without
// parsing logs.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/project-hledam/go-scraper/internal/config"
	"github.com/project-hledam/go-scraper/internal/filter"
	"github.com/project-hledam/go-scraper/internal/jobid"
	"github.com/project-hledam/go-scraper/internal/research"
	"github.com/project-hledam/go-scraper/internal/scrape"
	"github.com/project-hledam/go-scraper/internal/scraper/euremotejobs"
	"github.com/project-hledam/go-scraper/internal/scraper/generic"
	"github.com/project-hledam/go-scraper/internal/scraper/jobscz"
	"github.com/project-hledam/go-scraper/internal/scraper/linkedin"
	"github.com/project-hledam/go-scraper/internal/scraper/startupjobs"
	"github.com/project-hledam/go-scraper/internal/searchcache"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.Load()
	env := &scrape.Env{
		CacheDir:   cfg.Dirs.CacheDir,
		ProfileDir: filepath.Join(cfg.Dirs.ProfileDir, "linkedin"),
		ConfigDir:  cfg.Dirs.ConfigDir,
		DebugDir:   cfg.Dirs.DebugDir,
		UserAgent:  cfg.Scraper.UserAgent,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel in-flight browser work on Ctrl-C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Interrupt received, stopping...")
		cancel()
	}()

	var out any
	switch cmd := os.Args[1]; cmd {
	case "search":
		out = runSearch(ctx, cfg, env, os.Args[2:])
	case "jd":
		out = runJD(ctx, env, os.Args[2:])
	case "top-picks":
		out = runTopPicks(ctx, env, os.Args[2:])
	case "auth-check":
		out = (&linkedin.Scraper{Env: env}).CheckAuthStatus(ctx)
	case "login":
		out = (&linkedin.Scraper{Env: env}).Login(ctx)
	case "show":
		out = runShow(env, os.Args[2:])
	case "research":
		out = runResearch(ctx, cfg, env, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	emit(out)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: scraper <command> [flags]

commands:
  search      search a job source (-source, -query, ...)
  jd          fetch job descriptions (-ids job_li_123,job_cz_456)
  top-picks   scrape LinkedIn recommended jobs
  auth-check  report LinkedIn session state
  login       open a visible browser for LinkedIn login
  show        print a cached search (-search-id)
  research    extract company intel (-site, -url)`)
}

func emit(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("Encode result: %v", err)
	}
}

// filterFlags registers the cross-source filter flags on a flag set and
// returns a builder for the resulting options.
func filterFlags(fs *flag.FlagSet) func(days int) filter.Options {
	excludeLocations := fs.String("exclude-locations", "", "comma-separated location substrings to drop")
	excludeCompanies := fs.String("exclude-companies", "", "comma-separated company substrings to drop")
	minLevel := fs.String("min-level", "", "drop jobs below this level (junior, mid, senior, staff)")
	aiOnly := fs.Bool("ai-only", false, "keep only AI/ML-focused jobs")

	return func(days int) filter.Options {
		return filter.Options{
			Days:             days,
			ExcludeLocations: splitList(*excludeLocations),
			ExcludeCompanies: splitList(*excludeCompanies),
			MinLevel:         *minLevel,
			AIOnly:           *aiOnly,
		}
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func runSearch(ctx context.Context, cfg *config.Config, env *scrape.Env, args []string) any {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	source := fs.String("source", "", "job source: linkedin, jobscz, startupjobs, euremotejobs, or a config name")
	query := fs.String("query", "", "search keywords")
	location := fs.String("location", "", "location name")
	region := fs.String("region", "", "region preset")
	remote := fs.String("remote", "", "remote filter (source-specific)")
	category := fs.String("category", "", "job category (euremotejobs)")
	level := fs.String("level", "", "experience level (euremotejobs)")
	seniority := fs.String("seniority", "", "seniority filter (startupjobs)")
	highSalary := fs.Bool("high-salary", false, "high-salary listings only (euremotejobs)")
	geoID := fs.String("geo-id", "", "explicit geo ID (linkedin)")
	days := fs.Int("days", 0, "staleness cutoff in days")
	maxPages := fs.Int("max-pages", 0, "listing pages to fetch")
	diagnostics := fs.Bool("diagnostics", false, "report selector match counts (config-driven sources)")
	buildFilter := filterFlags(fs)
	fs.Parse(args)

	opts := buildFilter(*days)

	switch *source {
	case "linkedin":
		var remotePtr *bool
		if *remote != "" {
			val := *remote == "true" || *remote == "yes"
			remotePtr = &val
		}
		return (&linkedin.Scraper{Env: env}).Search(ctx, linkedin.SearchParams{
			Query:    *query,
			Region:   *region,
			GeoID:    *geoID,
			Remote:   remotePtr,
			Days:     *days,
			MaxPages: *maxPages,
			Filter:   opts,
		})
	case "jobscz":
		return (&jobscz.Scraper{Env: env, RequestDelay: cfg.Scraper.RequestDelay}).Search(jobscz.SearchParams{
			Query:    *query,
			Location: *location,
			Remote:   *remote,
			Days:     *days,
			MaxPages: *maxPages,
			Filter:   opts,
		})
	case "startupjobs":
		return (&startupjobs.Scraper{Env: env}).Search(startupjobs.SearchParams{
			Query:     *query,
			Location:  *location,
			Remote:    *remote,
			Seniority: *seniority,
			Filter:    opts,
		})
	case "euremotejobs":
		return (&euremotejobs.Scraper{Env: env}).Search(ctx, euremotejobs.SearchParams{
			Query:      *query,
			Region:     *region,
			Category:   *category,
			Level:      *level,
			HighSalary: *highSalary,
			Days:       *days,
			MaxLoads:   *maxPages,
			Filter:     opts,
		})
	case "":
		return scrape.SearchError(fmt.Errorf("-source is required"), scrape.CodeInvalidParam, 0)
	default:
		// Anything else resolves against the config directory
		return (&generic.Scraper{Env: env}).Search(ctx, generic.SearchParams{
			Name:        *source,
			Query:       *query,
			Location:    *location,
			MaxPages:    *maxPages,
			Diagnostics: *diagnostics,
			Filter:      opts,
		})
	}
}

func runJD(ctx context.Context, env *scrape.Env, args []string) any {
	fs := flag.NewFlagSet("jd", flag.ExitOnError)
	ids := fs.String("ids", "", "comma-separated job IDs or URLs")
	source := fs.String("source", "", "config-driven source name (required for its IDs)")
	fs.Parse(args)

	idList := splitList(*ids)
	if len(idList) == 0 {
		return scrape.JDError("", fmt.Errorf("-ids is required"), scrape.CodeInvalidParam)
	}

	if *source != "" && !builtinSource(*source) {
		if len(idList) == 1 {
			return (&generic.Scraper{Env: env}).ScrapeJD(ctx, *source, idList[0])
		}
		return (&generic.Scraper{Env: env}).ScrapeJDs(ctx, *source, idList)
	}

	// Route by the ID prefix; a batch must stay within one source
	prefix, _, ok := jobid.Split(jobid.Normalize(idList[0]))
	if !ok && strings.Contains(idList[0], "://") {
		prefix = prefixForURL(idList[0])
	}
	switch prefix {
	case jobid.PrefixLinkedIn:
		s := &linkedin.Scraper{Env: env}
		if len(idList) == 1 {
			return s.ScrapeJD(ctx, idList[0])
		}
		return s.ScrapeJDs(ctx, idList)
	case jobid.PrefixJobsCZ:
		s := &jobscz.Scraper{Env: env}
		if len(idList) == 1 {
			return s.ScrapeJD(ctx, idList[0])
		}
		return s.ScrapeJDs(ctx, idList)
	case jobid.PrefixStartupJobs:
		s := &startupjobs.Scraper{Env: env}
		if len(idList) == 1 {
			return s.ScrapeJD(idList[0])
		}
		return s.ScrapeJDs(idList)
	case jobid.PrefixEURemoteJobs:
		s := &euremotejobs.Scraper{Env: env}
		if len(idList) == 1 {
			return s.ScrapeJD(ctx, idList[0])
		}
		return s.ScrapeJDs(ctx, idList)
	default:
		return scrape.JDError(idList[0],
			fmt.Errorf("cannot route %q to a source; pass -source for config-driven boards", idList[0]),
			scrape.CodeInvalidParam)
	}
}

func builtinSource(name string) bool {
	switch name {
	case "linkedin", "jobscz", "startupjobs", "euremotejobs":
		return true
	}
	return false
}

// prefixForURL routes a raw job URL to the scraper for its site.
func prefixForURL(u string) string {
	switch {
	case strings.Contains(u, "linkedin.com"):
		return jobid.PrefixLinkedIn
	case strings.Contains(u, "jobs.cz"):
		return jobid.PrefixJobsCZ
	case strings.Contains(u, "startupjobs.cz"):
		return jobid.PrefixStartupJobs
	case strings.Contains(u, "euremotejobs.com"):
		return jobid.PrefixEURemoteJobs
	}
	return ""
}

func runTopPicks(ctx context.Context, env *scrape.Env, args []string) any {
	fs := flag.NewFlagSet("top-picks", flag.ExitOnError)
	days := fs.Int("days", 0, "staleness cutoff in days")
	buildFilter := filterFlags(fs)
	fs.Parse(args)

	return (&linkedin.Scraper{Env: env}).TopPicks(ctx, buildFilter(*days))
}

func runShow(env *scrape.Env, args []string) any {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	searchID := fs.String("search-id", "", "ID returned by a previous search")
	fs.Parse(args)

	store := &searchcache.Store{Dir: env.CacheDir}
	rec, err := store.Get(*searchID)
	if err != nil {
		return scrape.SearchError(fmt.Errorf("search %q not found", *searchID), scrape.CodeSearchNotFound, 0)
	}
	return rec
}

func runResearch(ctx context.Context, cfg *config.Config, env *scrape.Env, args []string) any {
	fs := flag.NewFlagSet("research", flag.ExitOnError)
	site := fs.String("site", "", "research site: crunchbase, glassdoor, g2, linkedin")
	url := fs.String("url", "", "company page URL")
	clearSnippets := fs.String("clear-snippets", "", "drop cached extraction snippets (site name or \"all\")")
	fs.Parse(args)

	profiles := filepath.Dir(env.ProfileDir)
	client := &research.Client{
		Env:        env,
		ProfileDir: filepath.Join(profiles, "research"),
	}
	if cfg.Scraper.SnippetBaseURL != "" {
		client.Snippets = &research.Snippets{
			BaseURL: cfg.Scraper.SnippetBaseURL,
			Dir:     filepath.Join(env.CacheDir, "snippets"),
		}
	}

	if *clearSnippets != "" {
		if client.Snippets == nil {
			return map[string]string{"status": "ok"}
		}
		name := *clearSnippets
		if name == "all" {
			name = ""
		}
		if err := client.Snippets.ClearCache(name); err != nil {
			return map[string]string{"status": "error", "error": err.Error()}
		}
		return map[string]string{"status": "ok"}
	}

	if *url == "" {
		return map[string]string{"status": "error", "error": "-url is required", "code": scrape.CodeInvalidParam}
	}
	switch *site {
	case "crunchbase":
		return client.Crunchbase(ctx, *url)
	case "glassdoor":
		return client.Glassdoor(ctx, *url)
	case "g2":
		return client.G2(ctx, *url)
	case "linkedin":
		// Company pages reuse the logged-in job-search profile
		client.ProfileDir = env.ProfileDir
		return client.LinkedInCompanyPage(ctx, *url)
	default:
		return map[string]string{"status": "error", "error": fmt.Sprintf("unknown research site %q", *site), "code": scrape.CodeInvalidParam}
	}
}
