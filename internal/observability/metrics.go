package observability

const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"
	MHTTPRequests            MetricKey = "http_requests_total"
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"
	MLedgerBooks             MetricKey = "ledger_books_total"
	MLedgerBooksSold         MetricKey = "ledger_books_sold_total"
	MProxyPurchases          MetricKey = "proxy_purchases_total"
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"
)
