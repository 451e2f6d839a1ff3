package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// EventsPage serves the events list. It fetches the event API with the
// stored token when one exists and renders each event as a card.
func EventsPage() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(eventsHTML))
	}
}

const eventsHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Events</title>
<style>
  body { font-family: system-ui, sans-serif; background: #f4f5f7; margin: 0; }
  header { display: flex; justify-content: space-between; align-items: center; background: #fff; padding: 1rem 2rem; box-shadow: 0 1px 3px rgba(0,0,0,.1); }
  header h1 { margin: 0; font-size: 1.25rem; }
  header a { color: #2563eb; text-decoration: none; }
  main { max-width: 720px; margin: 2rem auto; padding: 0 1rem; }
  .card { background: #fff; border-radius: 8px; box-shadow: 0 1px 3px rgba(0,0,0,.1); padding: 1rem 1.5rem; margin-bottom: 1rem; }
  .card h2 { margin: 0 0 .25rem; font-size: 1.1rem; }
  .meta { color: #6b7280; font-size: .9rem; }
  .full { color: #991b1b; }
  .error { background: #fee2e2; color: #991b1b; padding: .5rem 1rem; border-radius: 4px; }
</style>
</head>
<body>
<header>
  <h1>Events</h1>
  <a href="/login" id="auth-link">Login</a>
</header>
<main id="events"></main>
<script>
const token = localStorage.getItem('token');
if (token) {
  const link = document.getElementById('auth-link');
  link.textContent = 'Logout';
  link.href = '#';
  link.addEventListener('click', () => {
    localStorage.removeItem('token');
    localStorage.removeItem('user');
    window.location.reload();
  });
}

function esc(s) {
  const div = document.createElement('div');
  div.textContent = s == null ? '' : String(s);
  return div.innerHTML;
}

(async () => {
  const container = document.getElementById('events');
  try {
    const headers = token ? { 'Authorization': 'Bearer ' + token } : {};
    const res = await fetch('/api/events', { headers });
    if (!res.ok) {
      throw new Error('Could not load events');
    }
    const events = await res.json();
    if (events.length === 0) {
      container.innerHTML = '<p>No events yet.</p>';
      return;
    }
    container.innerHTML = events.map((ev) => {
      const date = new Date(ev.date).toLocaleDateString();
      const spots = ev.is_full
        ? '<span class="full">Full</span>'
        : esc(ev.available_spots) + ' spots left';
      return '<div class="card">' +
        '<h2>' + esc(ev.title) + '</h2>' +
        '<div class="meta">' + esc(date) + (ev.location ? ' · ' + esc(ev.location) : '') +
        ' · ' + esc(ev.status) + ' · ' + spots + '</div>' +
        (ev.description ? '<p>' + esc(ev.description) + '</p>' : '') +
        '</div>';
    }).join('');
  } catch (err) {
    container.innerHTML = '<p class="error">' + esc(err.message) + '</p>';
  }
})();
</script>
</body>
</html>
`
