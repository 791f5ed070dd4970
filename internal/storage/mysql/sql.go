package mysql

// Statements stay within the SQL subset MySQL and SQLite share so the
// repository can be exercised against an in-memory SQLite database.

const hotelColumns = `
  h.id,
  h.property_token,
  h.name,
  h.description,
  h.address,
  h.country,
  h.city,
  h.state,
  h.province,
  h.zip,
  h.continent,
  h.price_tier,
  h.rate,
  h.overall_rating,
  h.location_rating,
  h.hotel_type,
  h.link`

const selectHotelIDByTokenSQL = `SELECT id FROM hotels WHERE property_token = ?`

const insertHotelSQL = `
INSERT INTO hotels
  (property_token, name, description, address, country, city, state, province, zip, continent,
   price_tier, rate, overall_rating, location_rating, hotel_type, link)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// COALESCE keeps the stored value when the listing does not carry one.
// Tier and rate are always rewritten: the tier is derived from the rate.
const updateHotelSQL = `
UPDATE hotels SET
  name            = COALESCE(?, name),
  description     = COALESCE(?, description),
  address         = COALESCE(?, address),
  country         = COALESCE(?, country),
  city            = COALESCE(?, city),
  state           = COALESCE(?, state),
  province        = COALESCE(?, province),
  zip             = COALESCE(?, zip),
  continent       = COALESCE(?, continent),
  price_tier      = ?,
  rate            = ?,
  overall_rating  = COALESCE(?, overall_rating),
  location_rating = COALESCE(?, location_rating),
  hotel_type      = COALESCE(?, hotel_type),
  link            = COALESCE(?, link),
  updated_at      = CURRENT_TIMESTAMP
WHERE id = ?
`

const deleteImagesOfHotelSQL = `DELETE FROM hotel_images WHERE hotel_id = ?`

const insertHotelImagesPrefix = "INSERT INTO hotel_images (hotel_id, image_url) VALUES "

const deleteHotelSQL = `DELETE FROM hotels WHERE id = ?`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const getHotelSQL = `SELECT` + hotelColumns + `
FROM hotels h
WHERE h.id = ?
`

const listHotelsSQL = `SELECT` + hotelColumns + `
FROM hotels h
ORDER BY h.id
`

// '!' is the LIKE escape character; see likePattern.
const searchHotelsSQL = `SELECT` + hotelColumns + `
FROM hotels h
WHERE LOWER(h.city) LIKE ? ESCAPE '!'
   OR LOWER(h.country) LIKE ? ESCAPE '!'
ORDER BY h.id
`

const listAllHotelImagesSQL = `SELECT id, hotel_id, image_url FROM hotel_images ORDER BY id`

const listHotelImagesPrefix = `SELECT id, hotel_id, image_url FROM hotel_images WHERE hotel_id IN `

const deleteHotelImagesPrefix = `DELETE FROM hotel_images WHERE id IN `

// -----------------------------------------------------------------------------
// USERS & REVIEWS
// -----------------------------------------------------------------------------

const insertUserSQL = `INSERT INTO users (name) VALUES (?)`

const getUserSQL = `SELECT id, name FROM users WHERE id = ?`

const listUsersSQL = `SELECT id, name FROM users ORDER BY id`

const deleteUserSQL = `DELETE FROM users WHERE id = ?`

const hotelExistsSQL = `SELECT 1 FROM hotels WHERE id = ?`

const userExistsSQL = `SELECT 1 FROM users WHERE id = ?`

const insertReviewSQL = `
INSERT INTO reviews
  (hotel_id, user_id, setting_review, room_review, service_review, food_review, overall_review)
VALUES
  (?, ?, ?, ?, ?, ?, ?)
`

const insertReviewImagesPrefix = "INSERT INTO review_images (review_id, image_url, image_type) VALUES "

// Reviews are always read with their user and hotel joined in.
const selectReviewViewSQL = `
SELECT
  r.id,
  r.hotel_id,
  r.user_id,
  r.setting_review,
  r.room_review,
  r.service_review,
  r.food_review,
  r.overall_review,
  u.name,
  h.name,
  h.description,
  h.address
FROM reviews r
JOIN users u  ON u.id = r.user_id
JOIN hotels h ON h.id = r.hotel_id
`

const listReviewImagesPrefix = `SELECT id, review_id, image_url, image_type FROM review_images WHERE review_id IN `
