package threat

import "regexp"

type Category string

const (
	SQLInjection     Category = "sql_injection"
	XSS              Category = "xss"
	PathTraversal    Category = "path_traversal"
	CommandInjection Category = "command_injection"
	SSRF             Category = "ssrf"
)

// Pattern is one row of the injection signature table.
type Pattern struct {
	Name     string
	Category Category
	Regexp   *regexp.Regexp
}

// DefaultPatterns is matched against the normalised endpoint and body.
var DefaultPatterns = []Pattern{
	{"sql_union_select", SQLInjection, regexp.MustCompile(`(?i)\bunion\b(\s+all)?[\s\S]{0,64}?\bselect\b`)},
	{"sql_tautology", SQLInjection, regexp.MustCompile(`(?i)\b(or|and)\s+['"]?\d+['"]?\s*=\s*['"]?\d+|'\s*(or|and)\s+'[^']*'\s*=\s*'`)},
	{"sql_comment_terminator", SQLInjection, regexp.MustCompile(`'\s*(--|#|/\*)`)},
	{"sql_stacked_query", SQLInjection, regexp.MustCompile(`(?i);\s*(drop|delete|truncate|alter|insert|update|create|exec)\b`)},
	{"sql_time_based", SQLInjection, regexp.MustCompile(`(?i)\b(sleep\s*\(\s*\d+\s*\)|benchmark\s*\(|waitfor\s+delay\b|pg_sleep\s*\()`)},

	{"xss_script_tag", XSS, regexp.MustCompile(`(?i)<\s*/?\s*script\b`)},
	{"xss_javascript_uri", XSS, regexp.MustCompile(`(?i)\b(javascript|vbscript)\s*:`)},
	{"xss_event_handler", XSS, regexp.MustCompile(`(?i)\bon(error|load|click|mouseover|mouseout|focus|blur|submit|change|keydown|keyup)\s*=`)},
	{"xss_embedded_tag", XSS, regexp.MustCompile(`(?i)<\s*(iframe|object|embed|svg|img)\b[^>]*\b(src|data|on\w+)\s*=`)},

	{"path_dot_dot", PathTraversal, regexp.MustCompile(`(?i)(\.\.|%2e%2e)(/|\\|%2f|%5c)`)},
	{"path_sensitive_file", PathTraversal, regexp.MustCompile(`(?i)(/etc/(passwd|shadow|hosts)|\\windows\\(system32|win\.ini)|/proc/self/)`)},

	{"cmd_chained", CommandInjection, regexp.MustCompile(`(?i)(;|&&|\|\||\|)\s*(cat|ls|id|whoami|uname|wget|curl|nc|ncat|bash|sh|rm|ping|powershell|cmd)\b`)},
	{"cmd_substitution", CommandInjection, regexp.MustCompile("\\$\\([^)]*\\)|`[^`]*\\b(cat|ls|id|whoami|uname|wget|curl|nc|bash|sh|rm)\\b[^`]*`")},

	{"ssrf_internal_host", SSRF, regexp.MustCompile(`(?i)\b(https?|gopher|dict|ftp)://(localhost|127\.\d+\.\d+\.\d+|0\.0\.0\.0|10\.\d+\.\d+\.\d+|192\.168\.\d+\.\d+|172\.(1[6-9]|2\d|3[01])\.\d+\.\d+|169\.254\.\d+\.\d+|\[::1?\]|metadata\.google\.internal)`)},
	{"ssrf_file_scheme", SSRF, regexp.MustCompile(`(?i)\bfile:///`)},
}

// DefaultBotSignatures are lower-case user-agent substrings of automation tools.
var DefaultBotSignatures = []string{
	"bot", "crawler", "spider", "scraper",
	"curl", "wget", "httpie",
	"python-requests", "python-urllib", "aiohttp", "scrapy",
	"go-http-client", "java/", "okhttp", "apache-httpclient", "libwww-perl",
	"node-fetch", "axios",
	"sqlmap", "nikto", "nmap", "masscan", "zgrab", "nuclei", "dirbuster", "gobuster",
}
