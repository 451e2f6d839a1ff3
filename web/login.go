package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// LoginPage serves the login form. It posts credentials to the auth
// endpoint, stores the returned token and user in localStorage and moves on
// to the events list; failures show the server message inline.
func LoginPage() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(loginHTML))
	}
}

const loginHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Login</title>
<style>
  body { font-family: system-ui, sans-serif; background: #f4f5f7; display: flex; justify-content: center; padding-top: 10vh; }
  .card { background: #fff; border-radius: 8px; box-shadow: 0 2px 8px rgba(0,0,0,.1); padding: 2rem; width: 320px; }
  .card h2 { margin-top: 0; }
  .field { margin-bottom: 1rem; }
  .field label { display: block; margin-bottom: .25rem; }
  .field input { width: 100%; padding: .5rem; border: 1px solid #ccc; border-radius: 4px; box-sizing: border-box; }
  button { width: 100%; padding: .6rem; border: 0; border-radius: 4px; background: #2563eb; color: #fff; cursor: pointer; }
  .error { background: #fee2e2; color: #991b1b; padding: .5rem; border-radius: 4px; margin-bottom: 1rem; display: none; }
</style>
</head>
<body>
<div class="card">
  <h2>Login</h2>
  <div class="error" id="error"></div>
  <form id="login-form">
    <div class="field">
      <label for="email">Email</label>
      <input type="email" id="email" name="email" required>
    </div>
    <div class="field">
      <label for="password">Password</label>
      <input type="password" id="password" name="password" required>
    </div>
    <button type="submit">Login</button>
  </form>
</div>
<script>
document.getElementById('login-form').addEventListener('submit', async (e) => {
  e.preventDefault();
  const errorBox = document.getElementById('error');
  errorBox.style.display = 'none';
  try {
    const res = await fetch('/api/auth/login', {
      method: 'POST',
      headers: { 'Content-Type': 'application/json' },
      body: JSON.stringify({
        email: document.getElementById('email').value,
        password: document.getElementById('password').value,
      }),
    });
    const data = await res.json();
    if (!res.ok) {
      throw new Error(data.message || 'An error occurred during login');
    }
    localStorage.setItem('token', data.token);
    localStorage.setItem('user', JSON.stringify(data.user));
    window.location.href = '/events';
  } catch (err) {
    errorBox.textContent = err.message;
    errorBox.style.display = 'block';
  }
});
</script>
</body>
</html>
`
