package github

import "time"

// Repository describes a GitHub repository
type Repository struct {
	FullName      string
	DefaultBranch string
	HTMLURL       string
	Private       bool
}

// Release represents a GitHub release
type Release struct {
	ID         int64
	TagName    string
	Name       string
	Body       string
	URL        string
	Prerelease bool
}

// ReleaseInput holds the fields of a release to create
type ReleaseInput struct {
	TagName         string
	Name            string
	Body            string
	TargetCommitish string
	Prerelease      bool
}

// Issue represents a GitHub issue
type Issue struct {
	Number int
	Title  string
	Body   string
	URL    string
	State  string
}

// Comment represents an issue comment
type Comment struct {
	ID        int64
	Body      string
	User      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
