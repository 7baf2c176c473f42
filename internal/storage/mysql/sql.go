package mysql

const insertUserSQL = `
INSERT INTO users (username, password_hash)
VALUES (?, ?)
`

const selectPasswordHashSQL = `
SELECT password_hash FROM users WHERE username = ?
`

const selectReviewsCountSQL = `
SELECT reviews_count FROM users WHERE username = ?
`

const incrementReviewsCountSQL = `
UPDATE users SET reviews_count = reviews_count + 1 WHERE username = ?
`
