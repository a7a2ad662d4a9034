// Package release resolves the product version from packaging or
// version-control metadata.
//
// Official releases are tagged with three numbers: major, minor, micro. A
// build sitting exactly on a tag reports just those pieces, e.g. 2.1.4.
// Unofficial builds are working toward the next micro release, so the build
// after tag 2.1.4 is a beta for 2.1.5; the commit distance since the tag
// becomes the beta id. Because all four numbers are embedded into the
// compiled artifact and betas must sort before the official build, the
// official build number is the 9999 sentinel, which is never displayed.
package release

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/extform/extform/internal/logger"
)

// OfficialBuild is the build-number sentinel marking an official tagged
// release. Betas carry their commit distance instead and therefore sort
// before it.
const OfficialBuild = 9999

// Source identifies which tier produced an Info.
type Source string

const (
	SourceManifest Source = "manifest"
	SourceGit      Source = "git"
	SourceFallback Source = "fallback"
)

// Info is the resolved product version.
type Info struct {
	// Name is the display string, e.g. "2.1.4-[IOPro]" or
	// "feature-x-2.1.5-beta07-[IOPRO]-[abc1234]".
	Name string
	// Numbers is [major, minor, micro, build]. Build is OfficialBuild for
	// releases sitting exactly on a tag, the commit distance otherwise.
	Numbers [4]int
	// Source records the tier that produced this Info.
	Source Source
}

// TagSource is the narrow version-control interface the resolver consumes.
// Both queries report absence (ok=false) instead of errors: a missing tag,
// a detached HEAD, or a missing git binary all degrade the same way.
type TagSource interface {
	Describe(ctx context.Context) (string, bool)
	Branch(ctx context.Context) (string, bool)
}

// DefaultPrimaryBranch is the branch that never prefixes version names.
const DefaultPrimaryBranch = "master"

// Resolver computes Info with a three-tier fallback: packaging manifest,
// then git tag description, then a hardcoded default. It never fails:
// version resolution must not block a build.
type Resolver struct {
	// ManifestPath is the packaging manifest to consult first (PKG-INFO).
	// Empty disables the manifest tier.
	ManifestPath string
	// Git answers describe/branch queries. Nil disables the git tier.
	Git TagSource
	// PrimaryBranch defaults to DefaultPrimaryBranch when empty.
	PrimaryBranch string
}

// Resolve determines the product version. A source distribution carries a
// packaging manifest with the version already fixed, so that tier wins
// unconditionally and git is never consulted for it.
func (r Resolver) Resolve(ctx context.Context) Info {
	log := logger.FromContext(ctx)

	if r.ManifestPath != "" {
		if f, err := os.Open(r.ManifestPath); err == nil {
			info, ok := parsePackageInfo(f)
			_ = f.Close()
			if ok {
				log.Debug("version_resolved", "source", "manifest", "name", info.Name)
				return info
			}
			log.Debug("version_manifest_unmatched", "path", r.ManifestPath)
		}
	}

	if r.Git != nil {
		if described, ok := r.Git.Describe(ctx); ok {
			if info, ok := r.fromDescribe(ctx, described); ok {
				log.Debug("version_resolved", "source", "git", "name", info.Name)
				return info
			}
			log.Debug("version_describe_unmatched", "describe", described)
		}
	}

	// Deliberately silent: builds proceed without version-control access at
	// the cost of an uninformative version.
	log.Debug("version_resolved", "source", "fallback")
	return Info{Name: "3.0.0-unsupported", Numbers: [4]int{3, 0, 0, 0}, Source: SourceFallback}
}

var manifestVersionRe = regexp.MustCompile(`^Version:\s*(\d+)\.(\d+)\.(\d+)(?:-beta(\d+))?`)

// parsePackageInfo scans a packaging manifest for its Version line. The
// name is the trimmed remainder of the line after the colon, verbatim; the
// beta number defaults to the official-build sentinel when absent.
func parsePackageInfo(r io.Reader) (Info, bool) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		m := manifestVersionRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		nums, ok := versionNumbers(m[1], m[2], m[3], m[4])
		if !ok {
			continue
		}
		name := strings.TrimSpace(line[len("Version:"):])
		return Info{Name: name, Numbers: nums, Source: SourceManifest}, true
	}
	return Info{}, false
}

var describeRe = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)(?:-(\d+)-g([0-9a-f]+))?`)

// describeParts is the parsed form of `git describe --tag` output.
type describeParts struct {
	major, minor, micro int
	commits             int    // commits since the tag; 0 when onTag
	hash                string // abbreviated commit hash; empty when onTag
	onTag               bool
}

// parseDescribe matches the tag description against
// MAJOR.MINOR.MICRO[-COMMITS-gHASH]. Matching is prefix-only, so suffixes
// like "-dirty" after an exact tag are tolerated.
func parseDescribe(s string) (describeParts, bool) {
	m := describeRe.FindStringSubmatch(s)
	if m == nil {
		return describeParts{}, false
	}
	nums, ok := versionNumbers(m[1], m[2], m[3], m[4])
	if !ok {
		return describeParts{}, false
	}
	d := describeParts{major: nums[0], minor: nums[1], micro: nums[2], hash: m[5]}
	if m[4] == "" {
		d.onTag = true
	} else {
		d.commits = nums[3]
	}
	return d, true
}

func (r Resolver) fromDescribe(ctx context.Context, described string) (Info, bool) {
	d, ok := parseDescribe(described)
	if !ok {
		return Info{}, false
	}

	var info Info
	info.Source = SourceGit
	if d.onTag {
		info.Numbers = [4]int{d.major, d.minor, d.micro, OfficialBuild}
		info.Name = fmt.Sprintf("%d.%d.%d-[IOPro]", d.major, d.minor, d.micro)
	} else {
		// A beta of the next micro release: the name shows the incremented
		// micro, the numbers keep the tagged one so the tuple stays tied to
		// the tag it was counted from.
		info.Numbers = [4]int{d.major, d.minor, d.micro, d.commits}
		info.Name = fmt.Sprintf("%d.%d.%d-beta%02d-[IOPRO]-[%s]", d.major, d.minor, d.micro+1, d.commits, d.hash)
	}

	primary := r.PrimaryBranch
	if primary == "" {
		primary = DefaultPrimaryBranch
	}
	if branch, ok := r.Git.Branch(ctx); ok && branch != primary {
		info.Name = branch + "-" + info.Name
	}

	return info, true
}

// versionNumbers converts up to four numeric capture groups, substituting
// the sentinel for an absent fourth group.
func versionNumbers(major, minor, micro, build string) ([4]int, bool) {
	var out [4]int
	for i, s := range []string{major, minor, micro} {
		n, err := strconv.Atoi(s)
		if err != nil {
			return out, false
		}
		out[i] = n
	}
	if build == "" {
		out[3] = OfficialBuild
		return out, true
	}
	n, err := strconv.Atoi(build)
	if err != nil {
		return out, false
	}
	out[3] = n
	return out, true
}
