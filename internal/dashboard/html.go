package dashboard

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>EcoCheck</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body { font-family: -apple-system, system-ui, sans-serif; background: #f6faf6; color: #1f2d1f; min-height: 100vh; }
        .header { background: #2e7d32; color: #fff; padding: 1.25rem 2rem; display: flex; justify-content: space-between; align-items: center; }
        .header h1 { font-size: 1.4rem; }
        .header .uptime { font-size: 0.8rem; opacity: 0.8; }
        main { max-width: 960px; margin: 0 auto; padding: 1.5rem 2rem; }
        form { display: flex; gap: 0.5rem; margin-bottom: 1.5rem; }
        input { flex: 1; padding: 0.6rem 0.8rem; border: 1px solid #a5c8a5; border-radius: 8px; font-size: 0.95rem; }
        button { padding: 0.6rem 1.2rem; border: 0; border-radius: 8px; background: #2e7d32; color: #fff; font-weight: 600; cursor: pointer; }
        button:disabled { opacity: 0.5; cursor: wait; }
        .result { background: #fff; border: 1px solid #d5e5d5; border-radius: 12px; padding: 1.25rem; margin-bottom: 1.5rem; }
        .badge { display: inline-block; padding: 0.3rem 0.9rem; border-radius: 9999px; color: #fff; font-weight: 700; }
        .confidence { margin-left: 0.75rem; color: #557055; }
        .summary { margin: 0.9rem 0; line-height: 1.45; }
        .row { padding: 0.45rem 0; border-top: 1px solid #eef4ee; font-size: 0.9rem; }
        .row b { display: block; color: #3b5b3b; }
        .error { color: #c62828; font-weight: 600; }
        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(170px, 1fr)); gap: 0.75rem; }
        .card { background: #fff; border: 1px solid #d5e5d5; border-radius: 10px; padding: 0.9rem; }
        .card .label { font-size: 0.7rem; text-transform: uppercase; letter-spacing: 0.05em; color: #6b856b; margin-bottom: 0.3rem; }
        .card .value { font-size: 1.5rem; font-weight: 700; }
        .footer { text-align: center; padding: 1rem; color: #7a927a; font-size: 0.75rem; }
    </style>
</head>
<body>
    <div class="header">
        <h1>🌿 EcoCheck</h1>
        <span class="uptime" id="uptime"></span>
    </div>
    <main>
        <form id="check">
            <input id="url" type="url" placeholder="https://shop.example/product/42" required>
            <button id="go" type="submit">Check</button>
        </form>
        <div class="result" id="result">Loading last analysis…</div>
        <div class="grid" id="stats">
            <div class="card"><div class="label">Checks</div><div class="value" id="checks_total">0</div></div>
            <div class="card"><div class="label">Failed</div><div class="value" id="checks_failed">0</div></div>
            <div class="card"><div class="label">Eco-Friendly</div><div class="value" id="label_eco_friendly">0</div></div>
            <div class="card"><div class="label">Moderate</div><div class="value" id="label_moderate">0</div></div>
            <div class="card"><div class="label">Not Eco-Friendly</div><div class="value" id="label_not_eco_friendly">0</div></div>
            <div class="card"><div class="label">Product Pages</div><div class="value" id="product_pages">0</div></div>
            <div class="card"><div class="label">Analyses Saved</div><div class="value" id="analyses_saved">0</div></div>
            <div class="card"><div class="label">Timeouts</div><div class="value" id="analyses_timed_out">0</div></div>
        </div>
    </main>
    <div class="footer">Stats refresh every 5s</div>
    <script>
        function esc(s) { const d = document.createElement('div'); d.textContent = s == null ? '' : String(s); return d.innerHTML; }
        function render(a) {
            const v = a.display;
            let h = '<span class="badge" style="background:' + esc(v.label.color) + '">' + esc(v.label.display) + '</span>';
            h += '<span class="confidence">Confidence: ' + esc(v.confidence) + '</span>';
            h += '<p class="summary">' + esc(v.summary) + '</p>';
            v.breakdown.forEach(function (it) {
                const val = it.isList ? (it.values && it.values.length ? it.values.map(esc).join(', ') : 'No certifications found') : esc(it.value);
                h += '<div class="row"><b>' + esc(it.icon) + ' ' + esc(it.title) + '</b>' + val + '</div>';
            });
            document.getElementById('result').innerHTML = h;
        }
        function fail(msg) { document.getElementById('result').innerHTML = '<span class="error">' + esc(msg) + '</span>'; }
        async function loadLast() {
            const r = await fetch('/api/last');
            const d = await r.json();
            if (r.ok) render(d); else document.getElementById('result').textContent = 'No recent analysis.';
        }
        document.getElementById('check').addEventListener('submit', async function (ev) {
            ev.preventDefault();
            const btn = document.getElementById('go');
            btn.disabled = true;
            document.getElementById('result').textContent = 'Analyzing…';
            try {
                const r = await fetch('/api/check', { method: 'POST', headers: { 'Content-Type': 'application/json' }, body: JSON.stringify({ url: document.getElementById('url').value }) });
                const d = await r.json();
                if (r.ok) render(d.analysis); else fail(d.error);
            } catch (e) { fail('Request failed'); }
            btn.disabled = false;
            refresh();
        });
        async function refresh() {
            try {
                const d = await (await fetch('/api/stats')).json();
                document.getElementById('uptime').textContent = 'up ' + d.uptime;
                document.querySelectorAll('#stats .value').forEach(function (el) {
                    if (d[el.id] !== undefined) el.textContent = Number(d[el.id]).toLocaleString();
                });
            } catch (e) {}
        }
        setInterval(refresh, 5000);
        refresh();
        loadLast();
    </script>
</body>
</html>`
