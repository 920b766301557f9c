package ghcli

import "time"

// issueFields is the JSON projection requested from issue view and list.
const issueFields = "number,title,body,state,labels,assignees,milestone,updatedAt,url"

// Label is one repository label as returned by `label list`.
type Label struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// User is an issue assignee.
type User struct {
	Login string `json:"login"`
}

// Milestone is the milestone block on an issue. The CLI emits null when the
// issue has none.
type Milestone struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
}

// Issue is the structured projection of one remote issue as returned by the
// tracker CLI's JSON mode.
type Issue struct {
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	State     string     `json:"state"`
	Labels    []Label    `json:"labels"`
	Assignees []User     `json:"assignees"`
	Milestone *Milestone `json:"milestone"`
	UpdatedAt time.Time  `json:"updatedAt"`
	URL       string     `json:"url"`
}

// LabelNames flattens the label objects to their names, preserving order.
func (i *Issue) LabelNames() []string {
	if len(i.Labels) == 0 {
		return nil
	}
	names := make([]string, len(i.Labels))
	for idx, l := range i.Labels {
		names[idx] = l.Name
	}
	return names
}

// AssigneeLogins flattens the assignee objects to their logins.
func (i *Issue) AssigneeLogins() []string {
	if len(i.Assignees) == 0 {
		return nil
	}
	logins := make([]string, len(i.Assignees))
	for idx, a := range i.Assignees {
		logins[idx] = a.Login
	}
	return logins
}

// Repo is the repository coordinate returned by `repo view`.
type Repo struct {
	Name  string `json:"name"`
	Owner struct {
		Login string `json:"login"`
	} `json:"owner"`
}
