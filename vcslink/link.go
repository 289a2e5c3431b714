// Package vcslink parses and renders VCS source links.
//
// Understood shapes (all optional parts in brackets):
//
//	[vcs+][protocol://][user@]server[:/]author/project[.git][@rev][#egg=name]
//
// Examples:
//
//	https://github.com/r1chardj0n3s/parse.git
//	git@gitlab.com:inkscape/inkscape.git
//	git+ssh://hg@bitbucket.org/mnpenner/merge-attrs@v1.2#egg=merge-attrs
package vcslink

import "regexp"

var (
	linkRe = regexp.MustCompile(
		`^` +
			`(?:([a-z]+)\+)?` + // vcs
			`(?:(ssh|https|http)://)?` + // protocol
			`(?:(.+)@)?` + // user
			`([^/@]+)[:/]` + // server
			`(.+)/` + // author
			`([^\s#@]+?)` + // project
			`(\.git)?` + // ext
			`(?:@([^#]+))?` + // rev
			`(?:#egg=(.+))?` + // name
			`$`)

	commitRe = regexp.MustCompile(`^[a-fA-F0-9]{40}$`)
)

// Link is a decomposed VCS source link.
type Link struct {
	VCS      string // defaults to "git"
	Protocol string // defaults to "ssh"
	User     string
	Server   string
	Author   string
	Project  string
	Ext      string // ".git" when present, kept only for reconstruction
	Rev      string // commit hash, tag or branch
	Name     string // dependency name, defaults to Project
}

// Parse decomposes a VCS link. It returns nil when the string does not look
// like a VCS link at all.
func Parse(link string) *Link {
	m := linkRe.FindStringSubmatch(link)
	if m == nil {
		return nil
	}

	l := &Link{
		VCS:      m[1],
		Protocol: m[2],
		User:     m[3],
		Server:   m[4],
		Author:   m[5],
		Project:  m[6],
		Ext:      m[7],
		Rev:      m[8],
		Name:     m[9],
	}
	if l.VCS == "" {
		l.VCS = "git"
	}
	if l.Protocol == "" {
		l.Protocol = "ssh"
	}
	if l.Name == "" {
		l.Name = l.Project
	}
	return l
}

// Commit returns the revision when it is an exact 40-hex commit reference,
// else "".
func (l *Link) Commit() string {
	if commitRe.MatchString(l.Rev) {
		return l.Rev
	}
	return ""
}

// Short renders the scheme-less form used by manifest-style ecosystems
// (pipenv, poetry).
func (l *Link) Short() string {
	link := ""
	if l.Protocol != "ssh" {
		link += l.Protocol + "://"
	}
	if l.User != "" {
		link += l.User + "@"
	}
	link += l.Server
	if l.Protocol == "ssh" {
		link += ":"
	} else {
		link += "/"
	}
	link += l.Author + "/" + l.Project + l.Ext
	return link
}

// Long renders the full form used by requirement-file ecosystems (pip):
// vcs+protocol://...@rev#egg=name.
func (l *Link) Long() string {
	link := l.VCS + "+" + l.Protocol + "://"
	if l.User != "" {
		link += l.User + "@"
	}
	link += l.Server + "/" + l.Author + "/" + l.Project + l.Ext
	if l.Rev != "" {
		link += "@" + l.Rev
	}
	if l.Name != "" {
		link += "#egg=" + l.Name
	}
	return link
}

// String renders the long form.
func (l *Link) String() string {
	return l.Long()
}
