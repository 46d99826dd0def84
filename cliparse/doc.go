// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a validated Config:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

Sources, lowest priority first:

 1. Default()
 2. YAML file from -c or BOOTH_CONFIG
 3. BOOTH_* environment variables, after loading .env
 4. Flags that were actually passed

# Keys

	flag          key / env suffix   default
	-p            port               3318
	-t            database_type      sqlite
	-d            database_url       booth.db
	-name         app_name           booth
	-temp         temp_dir           $TMPDIR/booth-uploads
	-max-upload   max_upload_bytes   33554432
	-session-ttl  session_ttl        12h
	-login-rate   login_rate         5
	-login-burst  login_burst        5
	-trust-proxy  trust_proxy        false
	-log-level    log_level          info

Login attempts are limited per client address. Only with trust_proxy set
is the address taken from X-Forwarded-For or X-Real-IP; otherwise the
connection's remote address is used.

Environment names are the key upper-cased with the prefix, e.g.
BOOTH_DATABASE_URL.
*/
package cliparse
