// Package http exposes the docsync service over HTTP.
//
// Routes mount at the server root:
//   - Auth: POST /login, GET /session, GET|POST /logout
//   - Sync: GET /sync (manual trigger, same pass as the scheduler)
//   - Reads: GET /docs (aggregate index), GET /doc/{path} (one document,
//     ?format=html adds a rendered body)
//   - Everything else answers a plain-text service banner
//
// Every response carries CORS headers echoing the request origin (or the
// configured default) with credentials allowed. Which of sync/docs/doc
// require a session is a configuration point; by default all three are open.
package http
