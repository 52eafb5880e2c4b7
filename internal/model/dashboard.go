package model

type TrendPoint struct {
	Date       string  `json:"date"`
	Present    int     `json:"Present"`
	Absent     int     `json:"Absent"`
	Total      int     `json:"Total"`
	Percentage float64 `json:"percentage"`
}

type TopMember struct {
	MemberID string `json:"_id"`
	Name     string `json:"name"`
	Count    int    `json:"count"`
}

type DashboardStats struct {
	TotalMembers int          `json:"totalMembers"`
	TrendData    []TrendPoint `json:"trendData"`
	TopMembers   []TopMember  `json:"topMembers"`
	LatestInfo   *TrendPoint  `json:"latestInfo"`
}
