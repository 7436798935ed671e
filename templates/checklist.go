// Package rztmpl holds the text templates rendered by rocrate-zenodo.
package rztmpl

// ChecklistFile is the template for rendering the review checklist of a
// Zenodo upload. It lists the converted metadata and every manual follow-up
// the conversion could not take care of.
const ChecklistFile = `# Zenodo upload review: {{ .Title }}

## Upload information
-[ ] check if the following information is correct; re-run the upload otherwise

    - Crate: {{ .Crate }}
    - Archive: {{ if .Archive }}{{ .Archive }}{{ if .ArchiveSize }} ({{ .ArchiveSize }}){{ end }}{{ else }}not created{{ end }}
{{- if .Record }}
    - Zenodo: {{ .Target }}
    - Record: {{ .Record }}{{ if .Published }} (published){{ else }} (draft){{ end }}
{{- else }}
    - Record: not uploaded (dry run)
{{- end }}
    - Date: {{ .Date }}

## Metadata checks
-[ ] title is useful and has no typos
     {{ .Title }}
-[ ] description is complete
-[ ] author list is complete and in the correct order
{{- range $idx, $creator := .Creators }}
    -[ ] {{ $creator.Name }}
{{- if $creator.ORCID }}
         ORCID: https://orcid.org/{{ $creator.ORCID }}
{{- end }}
{{- if $creator.Affiliation }}
         Affiliation: {{ $creator.Affiliation }}
{{- end }}
{{- end }}
-[ ] family and given names are separated correctly for every author
-[ ] ORCIDs look reasonable / are valid
{{- if .License }}
-[ ] license '{{ .License }}' matches the license of the crate
{{- else }}
-[ ] no license was set; enter the license manually on Zenodo
{{- end }}

## Conversion warnings
{{- range .Warnings }}
-[ ] {{ .Source }}: {{ .Message }}
{{- else }}
- none
{{- end }}
{{ if not .Published }}
## Publication
-[ ] review the draft on Zenodo; files can still be changed until the record is published
-[ ] publish the record; published records can't be deleted
{{ end -}}
`
