package health

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
)

type depRow struct {
	Name   string
	Label  string
	Status string
	Ping   string
	OK     bool
}

type dashboardView struct {
	Healthy     bool
	Rows        []depRow
	Traffic     TrafficInfo
	AvgResponse string
	Runtime     RuntimeInfo
	Data        DataInfo
	LastMethod  string
	LastPath    string
	Snapshot    CollectResult
}

var depLabels = map[string]string{
	"storage": "Storage",
	"redis":   "Redis",
	"sync":    "Sync bus",
	"remote":  "Remote API",
}

func healthyDep(status string) bool {
	switch status {
	case "connected", "reachable", "disabled":
		return true
	}
	return false
}

func newDashboardView(h CollectResult) dashboardView {
	v := dashboardView{
		Healthy:     h.Status == "ok",
		Traffic:     h.Traffic,
		AvgResponse: fmt.Sprint(h.Traffic.AvgResponseTime),
		Runtime:     h.Runtime,
		Data:        h.Data,
		LastMethod:  "-",
		LastPath:    "-",
		Snapshot:    h,
	}
	if m, ok := h.Traffic.LastRequest.(map[string]interface{}); ok {
		if s, ok := m["method"].(string); ok {
			v.LastMethod = s
		}
		if s, ok := m["path"].(string); ok {
			v.LastPath = s
		}
	}

	names := make([]string, 0, len(h.Dependencies))
	for name := range h.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d := h.Dependencies[name]
		label := depLabels[name]
		if label == "" {
			label = name
		}
		if d.Detail != "" {
			label += " (" + d.Detail + ")"
		}
		ping := "-"
		switch p := d.PingMs.(type) {
		case *int64:
			if p != nil {
				ping = fmt.Sprintf("%d ms", *p)
			}
		case float64:
			ping = fmt.Sprintf("%.0f ms", p)
		}
		if name == "sync" && d.Status == "connected" {
			ping = fmt.Sprintf("%d subscribers", h.Data.Subscribers)
		}
		v.Rows = append(v.Rows, depRow{Name: name, Label: label, Status: d.Status, Ping: ping, OK: healthyDep(d.Status)})
	}
	return v
}

// RenderDashboardHTML returns the status page served at GET /.
func RenderDashboardHTML(h CollectResult) string {
	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, newDashboardView(h)); err != nil {
		return "<!DOCTYPE html><title>Souk · API Status</title><p>" + template.HTMLEscapeString(err.Error()) + "</p>"
	}
	return buf.String()
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="fr">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Souk · API Status</title>
  <style>
    :root { --ink: #2F2A1F; --olive: #5B6B2F; --clay: #C2602D; --sand: #F6F1E7; --line: #E4DACB; --muted: #7A7163; }
    * { box-sizing: border-box; }
    body { margin: 0; background: var(--sand); color: var(--ink); font: 15px/1.5 system-ui, -apple-system, "Segoe UI", sans-serif; }
    main { max-width: 880px; margin: 48px auto; padding: 0 20px; }
    header { display: flex; justify-content: space-between; align-items: baseline; border-bottom: 2px solid var(--line); padding-bottom: 14px; }
    h1 { margin: 0; font-size: 26px; letter-spacing: -0.5px; }
    h1 small { display: block; font-size: 13px; color: var(--muted); font-weight: 500; letter-spacing: 0; }
    #headline { font-weight: 700; padding: 6px 14px; border-radius: 999px; background: #E6EDD5; color: var(--olive); }
    #headline.issue { background: #F8DCCB; color: var(--clay); }
    section { margin-top: 28px; }
    h2 { font-size: 12px; text-transform: uppercase; letter-spacing: 1.5px; color: var(--muted); margin: 0 0 10px; }
    table { width: 100%; border-collapse: collapse; background: #fff; border: 1px solid var(--line); border-radius: 10px; overflow: hidden; }
    td { padding: 10px 14px; border-top: 1px solid var(--line); }
    tr:first-child td { border-top: 0; }
    .dot { display: inline-block; width: 9px; height: 9px; border-radius: 50%; margin-right: 8px; background: var(--olive); }
    .dot.bad { background: var(--clay); }
    .num { text-align: right; color: var(--muted); font-variant-numeric: tabular-nums; }
    .cards { display: grid; grid-template-columns: repeat(auto-fit, minmax(150px, 1fr)); gap: 12px; }
    .card { background: #fff; border: 1px solid var(--line); border-radius: 10px; padding: 14px; }
    .card b { display: block; font-size: 22px; }
    .card span { font-size: 12px; color: var(--muted); }
    .last { margin-top: 12px; font-family: ui-monospace, monospace; font-size: 13px; color: var(--muted); }
    .errors { background: #fff; border: 1px solid var(--line); border-radius: 10px; padding: 4px 14px; }
    .err { border-top: 1px solid var(--line); padding: 10px 0; font-size: 13px; }
    .err:first-child { border-top: 0; }
    .err code { color: var(--clay); }
    footer { margin-top: 28px; display: flex; gap: 12px; align-items: center; color: var(--muted); font-size: 13px; }
    button { border: 1px solid var(--ink); background: transparent; padding: 6px 12px; border-radius: 6px; cursor: pointer; font: inherit; }
    a { color: var(--olive); }
  </style>
</head>
<body>
<main>
  <header>
    <h1>Souk · API Status<small>Marketplace data service</small></h1>
    <div id="headline" class="{{if not .Healthy}}issue{{end}}">{{if .Healthy}}All Systems Operational{{else}}System Issues Detected{{end}}</div>
  </header>

  <section>
    <h2>Dependencies</h2>
    <table id="deps">
      {{range .Rows}}<tr data-dep="{{.Name}}"><td><span class="dot{{if not .OK}} bad{{end}}"></span>{{.Label}}</td><td>{{.Status}}</td><td class="num">{{.Ping}}</td></tr>
      {{end}}
    </table>
  </section>

  <section>
    <h2>Traffic</h2>
    <div class="cards">
      <div class="card"><b id="total-req">{{.Traffic.TotalRequests}}</b><span>requests</span></div>
      <div class="card"><b id="success-rate">{{.Traffic.SuccessRate}}%</b><span>success rate</span></div>
      <div class="card"><b id="failed-count">{{.Traffic.FailedCount}}</b><span>server errors</span></div>
      <div class="card"><b id="avg-time">{{.AvgResponse}} ms</b><span>avg response</span></div>
    </div>
    <div class="last">last request: <span id="last-req">{{.LastMethod}} {{.LastPath}}</span></div>
  </section>

  <section>
    <h2>Runtime and data</h2>
    <div class="cards">
      <div class="card"><b id="uptime">{{.Runtime.UptimeSeconds}}s</b><span>uptime</span></div>
      <div class="card"><b id="heap">{{.Runtime.Memory.HeapUsed}} MB</b><span>heap in use</span></div>
      <div class="card"><b id="goroutines">{{.Runtime.Goroutines}}</b><span>goroutines</span></div>
      <div class="card"><b id="keys">{{.Data.Keys}}</b><span>stored keys · {{.Data.TotalKB}} KB</span></div>
    </div>
    <div class="last">{{.Runtime.GoVersion}} · {{.Runtime.Platform}}</div>
  </section>

  <section>
    <h2>Recent errors</h2>
    <div class="errors" id="errors"><div class="err">Not loaded. <button onclick="loadErrors()">Load error log</button></div></div>
  </section>

  <footer>
    <button onclick="refresh()">Refresh</button>
    <span id="updated"></span>
    <a href="/health/json">/health/json</a>
    <a href="/health/errors">/health/errors</a>
  </footer>
</main>
<script>
  const snapshot = {{.Snapshot}};
  const text = (id, v) => { const el = document.getElementById(id); if (el) el.textContent = v; };
  function render(d) {
    const t = d.traffic;
    text('total-req', t.totalRequests);
    text('success-rate', t.successRate + '%');
    text('failed-count', t.failedCount);
    text('avg-time', t.avgResponseTime + ' ms');
    text('uptime', d.runtime.uptimeSeconds + 's');
    text('heap', d.runtime.memory.heapUsed + ' MB');
    text('goroutines', d.runtime.goroutines);
    text('keys', d.data.keys);
    if (t.lastRequest) text('last-req', t.lastRequest.method + ' ' + t.lastRequest.path);
    for (const [name, dep] of Object.entries(d.dependencies)) {
      const row = document.querySelector('tr[data-dep="' + name + '"]');
      if (!row) continue;
      const ok = ['connected', 'reachable', 'disabled'].includes(dep.status);
      row.querySelector('.dot').className = 'dot' + (ok ? '' : ' bad');
      row.children[1].textContent = dep.status;
    }
    const hl = document.getElementById('headline');
    hl.className = d.status === 'ok' ? '' : 'issue';
    hl.textContent = d.status === 'ok' ? 'All Systems Operational' : 'System Issues Detected';
    text('updated', 'updated ' + new Date().toLocaleTimeString());
  }
  async function refresh() {
    try { render(await (await fetch('/health/json')).json()); } catch (e) { text('updated', 'refresh failed'); }
  }
  async function loadErrors() {
    const box = document.getElementById('errors');
    try {
      const list = await (await fetch('/health/errors')).json();
      box.replaceChildren();
      if (list.length === 0) { box.innerHTML = '<div class="err">No server errors recorded.</div>'; return; }
      for (const e of list) {
        const row = document.createElement('div');
        row.className = 'err';
        row.textContent = new Date(e.time).toLocaleString() + ' · ' + (e.method || '') + ' ' + (e.path || '') + ' · ' + (e.status || 500) + ' · ' + (e.message || '') + (e.traceId ? ' · trace ' + e.traceId : '');
        box.appendChild(row);
      }
    } catch (e) { box.innerHTML = '<div class="err">Error log unavailable.</div>'; }
  }
  render(snapshot);
  setInterval(refresh, 15000);
</script>
</body>
</html>`))
