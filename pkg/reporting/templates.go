/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: templates.go
Description: HTML template for frame-width reports.
*/

package reporting

// reportTemplate renders one card per scanned file
const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}} - bitlens</title>
    <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }

        body {
            font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            min-height: 100vh;
            color: #333;
        }

        .container {
            max-width: 1200px;
            margin: 0 auto;
            padding: 20px;
        }

        .header, .card {
            background: rgba(255, 255, 255, 0.95);
            border-radius: 20px;
            padding: 30px;
            margin-bottom: 30px;
            box-shadow: 0 8px 32px rgba(0, 0, 0, 0.1);
        }

        .header {
            text-align: center;
        }

        .header h1 {
            color: #4a5568;
            font-size: 2.2rem;
            margin-bottom: 10px;
        }

        .header p, .meta {
            color: #718096;
        }

        .card h2 {
            color: #4a5568;
            margin-bottom: 10px;
            word-break: break-all;
        }

        .best {
            font-size: 1.4rem;
            margin: 10px 0 20px;
        }

        .strip {
            font-family: monospace;
            white-space: pre;
            background: #1a202c;
            color: #68d391;
            padding: 8px;
            border-radius: 8px;
            overflow-x: auto;
            margin-bottom: 20px;
        }

        table {
            border-collapse: collapse;
            margin-top: 20px;
        }

        th, td {
            padding: 6px 14px;
            border-bottom: 1px solid #e2e8f0;
            text-align: right;
        }

        .error {
            color: #c53030;
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>{{.Title}}</h1>
            <p>Generated {{.GeneratedAt.Format "2006-01-02 15:04:05"}} &middot; report {{.ID}} &middot; v{{.Version}}</p>
            <p>widths {{.Options.MinWidth}}&ndash;{{.Options.MaxWidth}}{{if gt .Options.Delta 0}} &middot; delta {{.Options.Delta}}{{end}} &middot; harmonic threshold {{.Options.HarmonicThreshold}}</p>
        </div>

        {{range .Views}}
        <div class="card">
            <h2>{{.Path}}</h2>
            {{if .Error}}
            <p class="error">{{.Error}}</p>
            {{else}}
            <p class="meta">{{.Bits}} bits</p>
            <p class="best">Best width <strong>{{.BestWidth}}</strong> (score {{printf "%.4f" .BestScore}}){{if .Corrected}} &middot; harmonic corrected{{end}}</p>
            {{if .Strip}}<div class="strip">{{.Strip}}</div>{{end}}
            <canvas id="{{.ChartID}}" height="90"></canvas>
            <table>
                <tr><th>#</th><th>width</th><th>score</th></tr>
                {{range $i, $s := .Top}}
                <tr><td>{{$i}}</td><td>{{$s.Width}}</td><td>{{printf "%.4f" $s.Score}}</td></tr>
                {{end}}
            </table>
            <script>
                new Chart(document.getElementById('{{.ChartID}}'), {{.ChartJSON}});
            </script>
            {{end}}
        </div>
        {{end}}
    </div>
</body>
</html>
`
