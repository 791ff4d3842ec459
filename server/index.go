package server

const indexTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>mdzip</title>
<style>
body { font-family: sans-serif; max-width: 40rem; margin: 2rem auto; }
label { display: block; margin: .5rem 0; }
</style>
</head>
<body>
<h1>mdzip</h1>
<p>Upload a CSV of articles or a ZIP of HTML pages (max {{.MaxMB}} MB).</p>
<form action="/convert" method="post" enctype="multipart/form-data">
<label>File <input type="file" name="file" accept=".csv,.zip" required></label>
<label>Layout
<select name="layout">
<option value="sections"{{if eq .Layout "sections"}} selected{{end}}>Sections with SUMMARY.md</option>
<option value="flat"{{if eq .Layout "flat"}} selected{{end}}>Flat</option>
<option value="single"{{if eq .Layout "single"}} selected{{end}}>Single document</option>
</select>
</label>
<label>Format
<select name="format">
<option value="markdown"{{if eq .Format "markdown"}} selected{{end}}>Markdown</option>
<option value="json"{{if eq .Format "json"}} selected{{end}}>JSON</option>
<option value="html"{{if eq .Format "html"}} selected{{end}}>HTML</option>
<option value="pdf"{{if eq .Format "pdf"}} selected{{end}}>PDF</option>
</select>
</label>
<label>Engine
<select name="engine">
<option value="rules"{{if eq .Engine "rules"}} selected{{end}}>Rules</option>
<option value="commonmark"{{if eq .Engine "commonmark"}} selected{{end}}>CommonMark</option>
</select>
</label>
<label><input type="checkbox" name="summary"> SUMMARY.md in flat layout</label>
<label><input type="checkbox" name="dedupe"> Keep duplicate titles</label>
<label><input type="checkbox" name="extract_main"> Main content only</label>
<label><input type="checkbox" name="lenient_callouts"> Lenient callout matching</label>
<button type="submit">Convert</button>
</form>
</body>
</html>
`
