package vcslink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		link string
		want Link
	}{
		{
			name: "https with ext",
			link: "https://github.com/r1chardj0n3s/parse.git",
			want: Link{
				VCS: "git", Protocol: "https",
				Server: "github.com", Author: "r1chardj0n3s",
				Project: "parse", Ext: ".git", Name: "parse",
			},
		},
		{
			name: "scp style defaults to ssh",
			link: "git@gitlab.com:inkscape/inkscape.git",
			want: Link{
				VCS: "git", Protocol: "ssh", User: "git",
				Server: "gitlab.com", Author: "inkscape",
				Project: "inkscape", Ext: ".git", Name: "inkscape",
			},
		},
		{
			name: "full pip form",
			link: "git+ssh://hg@bitbucket.org/mnpenner/merge-attrs@v1.2#egg=merge-attrs",
			want: Link{
				VCS: "git", Protocol: "ssh", User: "hg",
				Server: "bitbucket.org", Author: "mnpenner",
				Project: "merge-attrs", Rev: "v1.2", Name: "merge-attrs",
			},
		},
		{
			name: "branch revision without egg",
			link: "https://github.com/org/repo@main",
			want: Link{
				VCS: "git", Protocol: "https",
				Server: "github.com", Author: "org",
				Project: "repo", Rev: "main", Name: "repo",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.link)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParse_NotALink(t *testing.T) {
	for _, line := range []string{"", "flask", "flask==1.0.0", "requests >=2.0, <3"} {
		assert.Nil(t, Parse(line), "%q must not parse as a link", line)
	}
}

func TestLink_Commit(t *testing.T) {
	const hash = "093b9740a73c58c62e736b9e2a1f4d26658b29d7"

	pinned := Parse("git+https://github.com/org/repo.git@" + hash + "#egg=repo")
	require.NotNil(t, pinned)
	assert.Equal(t, hash, pinned.Commit())

	branch := Parse("git+https://github.com/org/repo.git@main")
	require.NotNil(t, branch)
	assert.Empty(t, branch.Commit(), "a branch name is not a commit pin")

	scp := Parse("git@github.com:org/repo.git@" + hash)
	require.NotNil(t, scp)
	assert.Equal(t, "git", scp.VCS)
	assert.Equal(t, "ssh", scp.Protocol)
	assert.Equal(t, hash, scp.Commit())
}

func TestLink_Rendering(t *testing.T) {
	scp := Parse("git@gitlab.com:inkscape/inkscape.git")
	require.NotNil(t, scp)
	assert.Equal(t, "git@gitlab.com:inkscape/inkscape.git", scp.Short())
	assert.Equal(t, "git+ssh://git@gitlab.com/inkscape/inkscape.git#egg=inkscape", scp.Long())

	full := "git+ssh://hg@bitbucket.org/mnpenner/merge-attrs@v1.2#egg=merge-attrs"
	link := Parse(full)
	require.NotNil(t, link)
	assert.Equal(t, full, link.Long(), "pip form must round trip")
	assert.Equal(t, link.Long(), link.String())

	https := Parse("https://github.com/r1chardj0n3s/parse.git")
	require.NotNil(t, https)
	assert.Equal(t, "https://github.com/r1chardj0n3s/parse.git", https.Short())
}
