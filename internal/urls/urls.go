package urls

// Documentation URLs shown by the wizard and in error hints.
// Synapse documentation lives at https://element-hq.github.io/synapse/latest/

// Repository is the project home page.
const Repository = "https://github.com/muurk/synapse-topology"

// Installation is the Synapse installation guide, including generating
// the initial homeserver.yaml and signing key.
const Installation = "https://element-hq.github.io/synapse/latest/setup/installation.html"

// ServerName explains why the server name cannot be changed later.
const ServerName = "https://element-hq.github.io/synapse/latest/usage/configuration/config_documentation.html#server_name"

// ReportStats describes what the anonymous usage statistics contain.
const ReportStats = "https://element-hq.github.io/synapse/latest/usage/configuration/config_documentation.html#report_stats"

// SigningKey covers the homeserver signing key and why it must be backed up.
const SigningKey = "https://element-hq.github.io/synapse/latest/usage/configuration/config_documentation.html#signing_key_path"

// Delegation covers .well-known and SRV delegation of a server name.
const Delegation = "https://element-hq.github.io/synapse/latest/delegate.html"

// ReverseProxy lists example configurations for common reverse proxies.
const ReverseProxy = "https://element-hq.github.io/synapse/latest/reverse_proxy.html"

// Postgres covers setting up PostgreSQL for Synapse.
const Postgres = "https://element-hq.github.io/synapse/latest/postgres.html"

// FederationTester checks a deployed server's federation setup.
const FederationTester = "https://federationtester.matrix.org/"
