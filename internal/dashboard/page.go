package dashboard

// dashboardPage is the single-page UI. It connects back over WebSocket for
// live stats and polls /api/recent for the decision table.
const dashboardPage = `
<!DOCTYPE html>
<html>
<head>
    <title>CardioPredict - Serving Dashboard</title>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 20px; background-color: #f5f5f5; }
        .container { max-width: 1400px; margin: 0 auto; }
        .header { background: linear-gradient(135deg, #e53e3e 0%, #9b2c2c 100%); color: white; padding: 20px; border-radius: 10px; margin-bottom: 20px; }
        .header h1 { margin: 0; font-size: 2.2em; text-align: center; }
        .status-bar { display: flex; justify-content: space-between; align-items: center; background: white; padding: 15px; border-radius: 8px; margin-bottom: 20px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .status-indicator { display: flex; align-items: center; font-weight: bold; }
        .status-dot { width: 12px; height: 12px; border-radius: 50%; margin-right: 8px; }
        .status-active { background-color: #28a745; }
        .status-danger { background-color: #dc3545; }
        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(300px, 1fr)); gap: 20px; }
        .card { background: white; border-radius: 10px; padding: 20px; box-shadow: 0 4px 6px rgba(0,0,0,0.1); }
        .card h3 { margin-top: 0; color: #333; border-bottom: 2px solid #eee; padding-bottom: 10px; }
        .metric { display: flex; justify-content: space-between; align-items: center; padding: 8px 0; border-bottom: 1px solid #eee; }
        .metric:last-child { border-bottom: none; }
        .metric-label { font-weight: 500; color: #666; }
        .metric-value { font-weight: bold; color: #333; }
        .metric-positive { color: #28a745; }
        .metric-negative { color: #dc3545; }
        .large-metric { font-size: 1.5em; text-align: center; margin: 10px 0; }
        .progress-bar { width: 100%; height: 20px; background-color: #eee; border-radius: 10px; overflow: hidden; margin: 10px 0; }
        .progress-fill { height: 100%; transition: width 0.3s ease; }
        .progress-safe { background-color: #28a745; }
        .progress-danger { background-color: #dc3545; }
        .decisions-table { width: 100%; border-collapse: collapse; margin-top: 10px; }
        .decisions-table th, .decisions-table td { text-align: left; padding: 8px; border-bottom: 1px solid #eee; font-size: 0.9em; }
        .decisions-table th { background-color: #f8f9fa; font-weight: 600; }
        .risk-badge { padding: 2px 8px; border-radius: 4px; font-size: 0.8em; font-weight: bold; color: white; }
        .risk-high { background-color: #dc3545; }
        .risk-low { background-color: #28a745; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>CardioPredict Serving Dashboard</h1>
        </div>

        <div class="status-bar">
            <div class="status-indicator">
                <div class="status-dot" id="model-status-dot"></div>
                <span id="model-status-text">Checking...</span>
            </div>
            <div class="status-indicator">
                <span id="last-update">Last Updated: --</span>
            </div>
        </div>

        <div class="grid">
            <div class="card">
                <h3>Model</h3>
                <div class="metric">
                    <span class="metric-label">Format</span>
                    <span class="metric-value" id="model-format">--</span>
                </div>
                <div class="metric">
                    <span class="metric-label">Version</span>
                    <span class="metric-value" id="model-version">--</span>
                </div>
                <div class="metric">
                    <span class="metric-label">Artifact Age</span>
                    <span class="metric-value" id="model-age">--</span>
                </div>
                <div class="metric">
                    <span class="metric-label">Probabilities</span>
                    <span class="metric-value" id="model-proba">--</span>
                </div>
            </div>

            <div class="card">
                <h3>Traffic</h3>
                <div class="metric">
                    <span class="metric-label">Total Requests</span>
                    <span class="metric-value" id="total-requests">0</span>
                </div>
                <div class="metric">
                    <span class="metric-label">Succeeded</span>
                    <span class="metric-value metric-positive" id="success-count">0</span>
                </div>
                <div class="metric">
                    <span class="metric-label">Failed</span>
                    <span class="metric-value metric-negative" id="error-count">0</span>
                </div>
                <div class="metric">
                    <span class="metric-label">Error Rate</span>
                    <span class="metric-value" id="error-rate">0.00%</span>
                </div>
                <div class="metric">
                    <span class="metric-label">Uptime</span>
                    <span class="metric-value" id="uptime">0s</span>
                </div>
            </div>

            <div class="card">
                <h3>Risk Distribution</h3>
                <div class="large-metric">
                    <span id="high-risk-rate">0.00%</span> high risk
                </div>
                <div class="progress-bar">
                    <div class="progress-fill progress-safe" id="risk-progress"></div>
                </div>
                <div class="metric">
                    <span class="metric-label">High Risk</span>
                    <span class="metric-value metric-negative" id="high-count">0</span>
                </div>
                <div class="metric">
                    <span class="metric-label">Low Risk</span>
                    <span class="metric-value metric-positive" id="low-count">0</span>
                </div>
                <div class="metric">
                    <span class="metric-label">Avg Probability</span>
                    <span class="metric-value" id="avg-probability">--</span>
                </div>
            </div>

            <div class="card">
                <h3>Latency</h3>
                <div class="metric">
                    <span class="metric-label">Average</span>
                    <span class="metric-value" id="avg-latency">--</span>
                </div>
                <div class="metric">
                    <span class="metric-label">Max</span>
                    <span class="metric-value" id="max-latency">--</span>
                </div>
                <div class="metric">
                    <span class="metric-label">Journaled Decisions</span>
                    <span class="metric-value" id="journaled-count">0</span>
                </div>
            </div>

            <div class="card" style="grid-column: 1 / -1;">
                <h3>Recent Decisions</h3>
                <table class="decisions-table">
                    <thead>
                        <tr>
                            <th>Time</th>
                            <th>Label</th>
                            <th>Probability</th>
                            <th>Risk</th>
                            <th>Latency</th>
                        </tr>
                    </thead>
                    <tbody id="decisions-table-body">
                        <tr><td colspan="5" style="text-align: center; color: #666;">No decisions yet</td></tr>
                    </tbody>
                </table>
            </div>
        </div>
    </div>

    <script>
        const ws = new WebSocket('ws://' + location.host + '/ws');

        ws.onmessage = function(event) {
            updateDashboard(JSON.parse(event.data));
        };

        ws.onclose = function() {
            setTimeout(() => location.reload(), 5000);
        };

        function updateDashboard(data) {
            document.getElementById('last-update').textContent = 'Last Updated: ' + new Date(data.timestamp).toLocaleTimeString();

            const statusDot = document.getElementById('model-status-dot');
            const statusText = document.getElementById('model-status-text');
            if (data.modelStatus === 'LOADED') {
                statusDot.className = 'status-dot status-active';
                statusText.textContent = 'Model Ready';
            } else {
                statusDot.className = 'status-dot status-danger';
                statusText.textContent = 'Model Unavailable: ' + (data.unavailableReason || data.modelStatus);
            }

            document.getElementById('model-format').textContent = data.modelFormat || '--';
            document.getElementById('model-version').textContent = data.modelVersion || '--';
            document.getElementById('model-age').textContent = data.modelAgeSeconds > 0 ? formatDuration(data.modelAgeSeconds) : '--';
            document.getElementById('model-proba').textContent = data.probabilitiesEnabled ? 'enabled' : 'label fallback';

            document.getElementById('total-requests').textContent = data.totalRequests;
            document.getElementById('success-count').textContent = data.successCount;
            document.getElementById('error-count').textContent = data.errorCount;
            document.getElementById('error-rate').textContent = (data.errorRate * 100).toFixed(2) + '%';
            document.getElementById('uptime').textContent = formatDuration(data.uptimeSeconds);

            const highRate = (data.highRiskRate * 100).toFixed(2);
            document.getElementById('high-risk-rate').textContent = highRate + '%';
            const progress = document.getElementById('risk-progress');
            progress.style.width = highRate + '%';
            progress.className = 'progress-fill ' + (data.highRiskRate > 0.5 ? 'progress-danger' : 'progress-safe');
            document.getElementById('high-count').textContent = data.highRiskCount;
            document.getElementById('low-count').textContent = data.lowRiskCount;
            document.getElementById('avg-probability').textContent = data.successCount > 0 ? data.avgProbability.toFixed(4) : '--';

            document.getElementById('avg-latency').textContent = data.totalRequests > 0 ? data.avgLatencyMs.toFixed(1) + ' ms' : '--';
            document.getElementById('max-latency').textContent = data.maxLatencyMs > 0 ? data.maxLatencyMs.toFixed(1) + ' ms' : '--';
            document.getElementById('journaled-count').textContent = data.journaledDecisions;
        }

        function formatDuration(seconds) {
            if (seconds < 60) { return Math.floor(seconds) + 's'; }
            if (seconds < 3600) { return Math.floor(seconds / 60) + 'm'; }
            if (seconds < 86400) { return (seconds / 3600).toFixed(1) + 'h'; }
            return (seconds / 86400).toFixed(1) + 'd';
        }

        function refreshRecent() {
            fetch('/api/recent')
                .then(function(resp) { return resp.json(); })
                .then(function(entries) {
                    const tbody = document.getElementById('decisions-table-body');
                    if (!entries || entries.length === 0) {
                        tbody.innerHTML = '<tr><td colspan="5" style="text-align: center; color: #666;">No decisions yet</td></tr>';
                        return;
                    }
                    tbody.innerHTML = '';
                    entries.forEach(function(entry) {
                        const row = document.createElement('tr');
                        const badge = entry.risk === 'HIGH' ? 'risk-badge risk-high' : 'risk-badge risk-low';
                        row.innerHTML = '<td>' + new Date(entry.timestamp).toLocaleTimeString() + '</td>' +
                            '<td>' + entry.label + '</td>' +
                            '<td>' + entry.probability.toFixed(4) + '</td>' +
                            '<td><span class="' + badge + '">' + (entry.risk || '--') + '</span></td>' +
                            '<td>' + entry.latency_ms.toFixed(1) + ' ms</td>';
                        tbody.appendChild(row);
                    });
                })
                .catch(function() {});
        }

        refreshRecent();
        setInterval(refreshRecent, 5000);
    </script>
</body>
</html>
`
