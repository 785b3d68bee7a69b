package model

type DailyCount struct {
	Date  string `json:"date"`
	Total int    `json:"total"`
}

type StatItem struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type StatistikResponse struct {
	TotalUsers     int          `json:"total_users"`
	TotalMahasiswa int          `json:"total_mahasiswa"`
	TotalDPL       int          `json:"total_dpl"`
	TotalLaporan   int          `json:"total_laporan"`
	TotalBidang    int          `json:"total_bidang"`
	ByStatus       []StatItem   `json:"by_status"`
	Daily          []DailyCount `json:"daily"`
}

type ImportResult struct {
	SuccessCount int      `json:"success_count"`
	ErrorCount   int      `json:"error_count"`
	Errors       []string `json:"errors,omitempty"`
}
