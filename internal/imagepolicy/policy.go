// Пакет imagepolicy — политика внешних источников изображений.
// Разрешённые источники задаются шаблонами {protocol, hostname, pathname}.
// В hostname "*" соответствует одной метке домена, "**" — одной и более;
// в pathname "*" — одному сегменту пути, "**" — любому хвосту пути.
package imagepolicy

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// RemotePattern — шаблон разрешённого удалённого источника.
type RemotePattern struct {
	// Protocol — "http" или "https"; пустой — любой из них.
	Protocol string `yaml:"protocol"`
	// Hostname — имя хоста, допускаются "*" и "**".
	Hostname string `yaml:"hostname"`
	// Port — порт; пустой означает порт по умолчанию.
	Port string `yaml:"port"`
	// Pathname — шаблон пути; пустой — любой путь.
	Pathname string `yaml:"pathname"`
}

// Policy — неизменяемый набор разрешённых источников.
type Policy struct {
	patterns []RemotePattern
}

// New создаёт политику из набора шаблонов.
func New(patterns ...RemotePattern) *Policy {
	p := make([]RemotePattern, len(patterns))
	copy(p, patterns)
	return &Policy{patterns: p}
}

// Patterns возвращает копию шаблонов политики.
func (p *Policy) Patterns() []RemotePattern {
	out := make([]RemotePattern, len(p.patterns))
	copy(out, p.patterns)
	return out
}

// ParsePattern разбирает шаблон в URL-форме, например "https://**.example.com/photos/**".
func ParsePattern(raw string) (RemotePattern, error) {
	// Разбираем вручную: шаблон содержит "*" в hostname.
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return RemotePattern{}, fmt.Errorf("шаблон %q: отсутствует протокол", raw)
	}
	if scheme != "http" && scheme != "https" {
		return RemotePattern{}, fmt.Errorf("шаблон %q: недопустимый протокол %q", raw, scheme)
	}

	hostPort, path, _ := strings.Cut(rest, "/")
	if hostPort == "" {
		return RemotePattern{}, fmt.Errorf("шаблон %q: пустой hostname", raw)
	}
	host, port, _ := strings.Cut(hostPort, ":")

	rp := RemotePattern{Protocol: scheme, Hostname: strings.ToLower(host), Port: port}
	if path != "" {
		rp.Pathname = "/" + path
	}
	return rp, nil
}

// FromStrings создаёт политику из шаблонов в URL-форме.
func FromStrings(raw []string) (*Policy, error) {
	patterns := make([]RemotePattern, 0, len(raw))
	for _, r := range raw {
		rp, err := ParsePattern(r)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, rp)
	}
	return New(patterns...), nil
}

// fileFormat — формат YAML-файла политики.
type fileFormat struct {
	RemotePatterns []RemotePattern `yaml:"remotePatterns"`
}

// LoadFile загружает политику из YAML-файла.
func LoadFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение политики изображений %s: %w", path, err)
	}
	return Parse(data)
}

// Parse разбирает YAML-описание политики.
func Parse(data []byte) (*Policy, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("парсинг политики изображений: %w", err)
	}
	for i, rp := range f.RemotePatterns {
		if rp.Hostname == "" {
			return nil, fmt.Errorf("remotePatterns[%d]: пустой hostname", i)
		}
		if rp.Protocol != "" && rp.Protocol != "http" && rp.Protocol != "https" {
			return nil, fmt.Errorf("remotePatterns[%d]: недопустимый протокол %q", i, rp.Protocol)
		}
		f.RemotePatterns[i].Hostname = strings.ToLower(rp.Hostname)
	}
	return New(f.RemotePatterns...), nil
}

// Allowed проверяет, разрешён ли URL изображения политикой.
func (p *Policy) Allowed(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || u.User != nil {
		return false
	}
	for _, rp := range p.patterns {
		if rp.matches(u) {
			return true
		}
	}
	return false
}

// matches проверяет URL на соответствие шаблону.
func (rp RemotePattern) matches(u *url.URL) bool {
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if rp.Protocol != "" && rp.Protocol != u.Scheme {
		return false
	}
	if rp.Port != u.Port() {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if !matchLabels(strings.Split(rp.Hostname, "."), strings.Split(host, "."), 1) {
		return false
	}
	if rp.Pathname == "" {
		return true
	}
	return matchLabels(splitPath(rp.Pathname), splitPath(u.EscapedPath()), 0)
}

// splitPath разбивает путь на сегменты без ведущего "/".
func splitPath(p string) []string {
	return strings.Split(strings.TrimPrefix(p, "/"), "/")
}

// matchLabels сопоставляет сегменты значения с сегментами шаблона.
// "*" — ровно один сегмент, "**" — не менее minDeep сегментов.
func matchLabels(pattern, value []string, minDeep int) bool {
	if len(pattern) == 0 {
		return len(value) == 0
	}
	switch pattern[0] {
	case "**":
		for n := minDeep; n <= len(value); n++ {
			if matchLabels(pattern[1:], value[n:], minDeep) {
				return true
			}
		}
		return false
	case "*":
		if len(value) == 0 || value[0] == "" {
			return false
		}
		return matchLabels(pattern[1:], value[1:], minDeep)
	default:
		if len(value) == 0 || value[0] != pattern[0] {
			return false
		}
		return matchLabels(pattern[1:], value[1:], minDeep)
	}
}
