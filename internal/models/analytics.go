package models

// CountEntry одна позиция сгруппированной статистики.
type CountEntry struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// DayCount количество кликов за один календарный день.
type DayCount struct {
	Date   string `json:"date"`  // YYYY-MM-DD
	Label  string `json:"label"` // короткая дата для графика, например "Oct 6"
	Clicks int64  `json:"clicks"`
}

// LinkAnalytics агрегированная статистика кликов по одной ссылке.
// Группировки отсортированы по убыванию количества (при равенстве по ключу);
// BySubmission отсортирована по правилу submission номеров.
type LinkAnalytics struct {
	TotalClicks  int64        `json:"total_clicks"`
	ByLinkTitle  []CountEntry `json:"by_link_title"`
	ByCreator    []CountEntry `json:"by_creator"`
	BySubmission []CountEntry `json:"by_submission"`
	ByCountry    []CountEntry `json:"by_country"`
	ByDevice     []CountEntry `json:"by_device"`
	ByBrowser    []CountEntry `json:"by_browser"`
	Daily        []DayCount   `json:"daily"`
	Recent       []LinkClick  `json:"recent"`
}

// CreatorAnalytics статистика по одному creator username,
// опционально суженная до одного submission номера.
type CreatorAnalytics struct {
	Creator        string       `json:"creator"`
	Submission     string       `json:"submission,omitempty"` // пусто = все submissions
	TotalClicks    int64        `json:"total_clicks"`
	BySubmission   []CountEntry `json:"by_submission"`
	ByCountry      []CountEntry `json:"by_country"`
	ByDevice       []CountEntry `json:"by_device"`
	ByBrowser      []CountEntry `json:"by_browser"`
	AllSubmissions []string     `json:"all_submissions"`
	Recent         []LinkClick  `json:"recent"`
}
