package dashboard

import "html/template"

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{ .Title }}</title>
  <style>
    :root {
      --bg: #f7f8fa;
      --ink: #0f172a;
      --muted: #667085;
      --line: rgba(15, 23, 42, 0.12);
      --card: #ffffff;
      --brand: #0ea5e9;
    }
    * { box-sizing: border-box; }
    body {
      margin: 0;
      color: var(--ink);
      background: var(--bg);
      font-family: "Source Sans Pro", "Helvetica Neue", Arial, sans-serif;
      display: flex;
      min-height: 100vh;
    }
    aside {
      width: 260px;
      flex: none;
      padding: 24px 18px;
      background: #f0f2f6;
      border-right: 1px solid var(--line);
    }
    aside h2 { font-size: 18px; margin: 0 0 16px; }
    aside label { display: block; font-size: 13px; color: var(--muted); margin-bottom: 6px; }
    aside select {
      width: 100%;
      padding: 8px 10px;
      border: 1px solid var(--line);
      border-radius: 8px;
      background: #fff;
      font-size: 14px;
    }
    aside .credit { margin-top: 16px; font-size: 13px; }
    aside .meta { margin-top: 28px; font-size: 12px; color: var(--muted); word-break: break-all; }
    main { flex: 1; padding: 32px 48px; max-width: 1100px; }
    h1 { margin: 0 0 24px; font-size: 40px; }
    h2 { font-size: 24px; margin: 8px 0 16px; }
    .chart { width: 100%; background: var(--card); border: 1px solid var(--line); border-radius: 10px; }
    .caption { color: var(--muted); font-size: 14px; margin-top: 8px; }
    .tabs { display: flex; gap: 4px; border-bottom: 1px solid var(--line); margin-bottom: 16px; }
    .tabs a {
      padding: 10px 16px;
      text-decoration: none;
      color: var(--muted);
      border-bottom: 2px solid transparent;
    }
    .tabs a.active { color: var(--ink); border-bottom-color: #ff4b4b; }
    .metric { margin: 8px 0 16px; }
    .metric .label { font-size: 14px; color: var(--muted); }
    .metric .value { font-size: 36px; }
    details { margin: 12px 0 24px; border: 1px solid var(--line); border-radius: 8px; padding: 10px 14px; background: var(--card); }
    summary { cursor: pointer; }
    table { border-collapse: collapse; width: 100%; background: var(--card); }
    th, td { text-align: left; padding: 8px 12px; border-bottom: 1px solid var(--line); font-size: 14px; }
    td.num, th.num { text-align: right; }
    .muted { color: var(--muted); font-size: 13px; }
  </style>
</head>
<body>
  <aside>
    <h2>Data Explanatory</h2>
    <form action="/views" method="get">
      <label for="view">Select Dataset</label>
      <select id="view" name="view" onchange="this.form.submit()">
        {{- range .Nav }}
        <option value="{{ .Slug }}"{{ if .Selected }} selected{{ end }}>{{ .Label }}</option>
        {{- end }}
      </select>
      <noscript><button type="submit">Show</button></noscript>
    </form>
    <p class="credit">Developer by Khoirun Niswa</p>
    <div class="meta">
      <div>Source: {{ .Source }}</div>
      <div>Loaded {{ .LoadedAgo }}</div>
      <div>Load {{ .LoadID }}</div>
    </div>
  </aside>
  <main>
    <h1>{{ .Title }}</h1>
    {{- with .Aggregate }}
    <h2>{{ .Subheader }}</h2>
    <img class="chart" src="{{ $.ChartURL }}" alt="{{ .Title }}" />
    <p class="caption">{{ .Caption }}</p>
    <p class="muted">{{ $.Total }} rows counted.</p>
    {{- end }}
    {{- with .RFM }}
    <h2>Best Customers Based on RFM Parameters</h2>
    <nav class="tabs">
      {{- range .Tabs }}
      <a href="/views/rfm?tab={{ .Slug }}"{{ if .Active }} class="active"{{ end }}>{{ .Label }}</a>
      {{- end }}
    </nav>
    <h2>{{ .Tab.Label }}</h2>
    <div class="metric">
      <div class="label">{{ .Tab.AverageLabel }}</div>
      <div class="value">{{ .Average }}</div>
    </div>
    <img class="chart" src="{{ .ChartURL }}" alt="Top customers by {{ .Tab.Label }}" />
    <details>
      <summary>See explanation</summary>
      <p>{{ .Tab.Explanation }}</p>
    </details>
    <h2>Customer Segments</h2>
    <table>
      <thead><tr><th>Segment</th><th class="num">Customers</th><th class="num">Monetary</th></tr></thead>
      <tbody>
        {{- range .Segments }}
        <tr><td>{{ .Segment }}</td><td class="num">{{ .Customers }}</td><td class="num">{{ .Monetary }}</td></tr>
        {{- end }}
      </tbody>
    </table>
    <p class="muted">
      {{ .Customers }} customers{{ if .WindowEnd }} purchasing between {{ .WindowStart }} and {{ .WindowEnd }}{{ end }}.
      <a href="{{ .ExportURL }}">Download workbook</a>
    </p>
    {{- end }}
  </main>
</body>
</html>
`))
