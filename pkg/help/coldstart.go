package help

const ColdstartYAML = `# hqf Quick Start

what_it_does: |
  Forwards the launcher query to your HTTP endpoint, expects a JSON
  array back, and renders one row per entry.

settings_keys:
  server_address: "http://127.0.0.1 (scheme optional)"
  server_port: "8080 (ignored when the address carries a port)"
  server_path: "/"
  query_param_name: "q"
  url_encode_query: "true"
  request_timeout: "5 (seconds)"
  custom_url_template: "overrides the fields above when set"
  cache_ttl: "30s (empty disables the response cache)"
  history: "true (record queries to SQLite)"

template_placeholders:
  "{query}": "raw query text"
  "{encoded_query}": "percent-encoded query text"
  "{query_param_name}": "the configured parameter name"

commands:
  debug_query: |
    hqf query "golang slices"

  yaml_output: |
    hqf query --format yaml "golang slices"

  custom_settings_file: |
    hqf query --settings ./settings.yaml "golang slices"

  recent_queries: |
    hqf history --limit 20

  wipe_history: |
    hqf history clear

response_contract:
  - "Body must be a JSON array of objects"
  - "Each object needs Title; SubTitle, IcoPath, Score are optional"
  - "JsonRPCAction.method must be one of: open_url, shell_run, copy_to_clipboard, change_query, flow_show_msg"
  - "ContextMenuItems entries get their own rows in the context menu"

failure_modes:
  - "Timeouts, network errors, bad JSON, and bad settings all render one diagnostic row"
  - "The host process never sees an exception"
`
