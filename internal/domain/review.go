package domain

type Review struct {
	AuthorName   string
	AuthorURL    string
	AvatarURL    *string // profile photo; absent for some reviewers
	Rating       float64 // 0..5
	Text         string
	RelativeTime *string // "a week ago"
	Time         int64   // unix seconds
}
