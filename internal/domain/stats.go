package domain

// Totals counts every entity in the store.
type Totals struct {
	Users      int `json:"users"`
	Topics     int `json:"topics"`
	Comments   int `json:"comments"`
	Categories int `json:"categories"`
}

// UserStatus splits accounts by moderation state.
type UserStatus struct {
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
	Banned   int `json:"banned"`
}

// CategoryCount is the number of topics filed under one category.
type CategoryCount struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TopicCount int    `json:"topicCount"`
}

// MonthCount is an activity count for one calendar month.
type MonthCount struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Count int `json:"count"`
}

// MonthlyActivity holds per-month topic and comment creation counts.
type MonthlyActivity struct {
	Topics   []MonthCount `json:"topics"`
	Comments []MonthCount `json:"comments"`
}

// Dashboard is the admin statistics report.
type Dashboard struct {
	Stats             Totals          `json:"stats"`
	UserStatus        UserStatus      `json:"userStatus"`
	TopicsPerCategory []CategoryCount `json:"topicsPerCategory"`
	MonthlyActivity   MonthlyActivity `json:"monthlyActivity"`
}
