package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	config "github.com/phillip/event-manager-go/config"
	models "github.com/phillip/event-manager-go/models"
	utils "github.com/phillip/event-manager-go/utils"
)

// ---------------- TEST ----------------
func TestConnection(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		col := cfg.MongoClient.Database(cfg.DBName).Collection("events")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		count, err := col.CountDocuments(ctx, bson.M{})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "MongoDB connection error",
				"error":   err.Error(),
				"status":  "error",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":     "MongoDB connection is working!",
			"eventsCount": count,
			"status":      "success",
		})
	}
}

// ---------------- LIST ----------------
func ListEvents(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		col := cfg.MongoClient.Database(cfg.DBName).Collection("events")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// --- Build filter ---
		filter := bson.M{}
		if search := c.Query("search"); search != "" {
			filter["$or"] = []bson.M{
				{"title": bson.M{"$regex": search, "$options": "i"}},
				{"description": bson.M{"$regex": search, "$options": "i"}},
			}
		}
		if category := c.Query("category"); category != "" {
			filter["category"] = category
		}
		if status := c.Query("status"); status != "" {
			filter["status"] = status
		}

		// --- Fetch data, soonest first ---
		cursor, err := col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "could not fetch events"})
			return
		}

		var events []models.Event
		if err := cursor.All(ctx, &events); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "could not decode events"})
			return
		}

		if len(events) == 0 {
			c.JSON(http.StatusOK, []models.Event{})
			return
		}

		expandCreators(ctx, cfg, events)
		for i := range events {
			events[i].Enrich()
		}

		// --- Pick the most recently updated event ---
		latest := events[0]
		for _, ev := range events {
			if ev.UpdatedAt.After(latest.UpdatedAt) {
				latest = ev
			}
		}

		// --- Generate ETag from latest event ---
		etag := utils.GenerateETag(latest.ID, latest.UpdatedAt)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)
		c.Header("Last-Modified", latest.UpdatedAt.UTC().Format(http.TimeFormat))

		c.JSON(http.StatusOK, events)
	}
}

// ---------------- CREATE ----------------
func CreateEvent(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// --- Authenticated user ---
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid user id"})
			return
		}

		// --- Bind input ---
		var input struct {
			Title       string   `form:"title" json:"title" binding:"required"`
			Description string   `form:"description" json:"description"`
			Date        string   `form:"date" json:"date" binding:"required"`
			Time        string   `form:"time" json:"time"`
			Location    string   `form:"location" json:"location"`
			Category    string   `form:"category" json:"category"`
			Capacity    int      `form:"capacity" json:"capacity" binding:"required,min=1"`
			Tags        []string `form:"tags" json:"tags"`
		}

		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		log.Printf("Creating event %q", input.Title)

		if input.Category != "" && !models.ValidCategory(input.Category) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid category"})
			return
		}

		date, err := parseEventDate(input.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid date format, use RFC3339 or YYYY-MM-DD"})
			return
		}

		// --- Optional image upload ---
		image := models.DefaultEventImage
		form, err := c.MultipartForm()
		if err != nil && err != http.ErrNotMultipart {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid form data"})
			return
		}
		if form != nil {
			if files := form.File["image"]; len(files) > 0 {
				fileHeader := files[0]
				file, err := fileHeader.Open()
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to open file"})
					return
				}

				url, err := utils.UploadEventImage(file, fileHeader)
				file.Close()
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{
						"message": "image upload failed",
						"details": err.Error(),
						"file":    fileHeader.Filename,
					})
					return
				}
				image = url
			}
		}

		// --- Save event ---
		now := time.Now()
		event := models.Event{
			ID:          primitive.NewObjectID(),
			Title:       input.Title,
			Description: input.Description,
			Date:        date,
			Time:        input.Time,
			Location:    input.Location,
			Category:    input.Category,
			Capacity:    input.Capacity,
			Tags:        input.Tags,
			Status:      models.StatusUpcoming,
			CreatedBy:   userID,
			Registered:  []models.Participant{},
			Image:       image,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		event.RecomputeStatus(now)
		log.Printf("Saving event %s to DB", event.ID.Hex())

		col := cfg.MongoClient.Database(cfg.DBName).Collection("events")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := col.InsertOne(ctx, event); err != nil {
			log.Printf("Failed to save event: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"message": "Failed to create event", "error": err.Error()})
			return
		}
		log.Printf("Event %s saved successfully", event.ID.Hex())

		event.Enrich()
		c.JSON(http.StatusCreated, event)
	}
}

// ---------------- GET ----------------
func GetEvent(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid event id"})
			return
		}

		var event models.Event
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err = cfg.MongoClient.Database(cfg.DBName).
			Collection("events").
			FindOne(ctx, bson.M{"_id": eventID}).
			Decode(&event)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "Event not found"})
			return
		}

		attachCreator(ctx, cfg, &event)
		event.Enrich()

		etag := utils.GenerateETag(event.ID, event.UpdatedAt)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)

		c.JSON(http.StatusOK, event)
	}
}

// ---------------- UPDATE ----------------
func UpdateEvent(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// --- Validate requester identity ---
		role := c.GetString("role")
		requesterID := c.GetString("user_id")
		if requesterID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
			return
		}

		objID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid event id"})
			return
		}

		// --- Fetch existing event ---
		col := cfg.MongoClient.Database(cfg.DBName).Collection("events")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var existing models.Event
		if err := col.FindOne(ctx, bson.M{"_id": objID}).Decode(&existing); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "Event not found"})
			return
		}

		// --- Check permission ---
		if role != "admin" && existing.CreatedBy.Hex() != requesterID {
			c.JSON(http.StatusForbidden, gin.H{"message": "Access denied"})
			return
		}

		// --- Bind partial input ---
		var input struct {
			Title       string   `form:"title" json:"title"`
			Description string   `form:"description" json:"description"`
			Date        string   `form:"date" json:"date"`
			Time        string   `form:"time" json:"time"`
			Location    string   `form:"location" json:"location"`
			Category    string   `form:"category" json:"category"`
			Capacity    int      `form:"capacity" json:"capacity"`
			Tags        []string `form:"tags" json:"tags"`
			Status      string   `form:"status" json:"status"`
		}

		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}

		// --- Prepare update document ---
		update := bson.M{"updated_at": time.Now()}

		if input.Title != "" {
			existing.Title = input.Title
			update["title"] = input.Title
		}
		if input.Description != "" {
			existing.Description = input.Description
			update["description"] = input.Description
		}
		if input.Time != "" {
			existing.Time = input.Time
			update["time"] = input.Time
		}
		if input.Location != "" {
			existing.Location = input.Location
			update["location"] = input.Location
		}
		if input.Category != "" {
			if !models.ValidCategory(input.Category) {
				c.JSON(http.StatusBadRequest, gin.H{"message": "invalid category"})
				return
			}
			existing.Category = input.Category
			update["category"] = input.Category
		}
		if input.Capacity > 0 {
			existing.Capacity = input.Capacity
			update["capacity"] = input.Capacity
		}
		if input.Tags != nil {
			existing.Tags = input.Tags
			update["tags"] = input.Tags
		}
		if input.Status != "" {
			if !models.ValidStatus(input.Status) {
				c.JSON(http.StatusBadRequest, gin.H{"message": "invalid status"})
				return
			}
			existing.Status = input.Status
			update["status"] = input.Status
		}
		if input.Date != "" {
			parsed, err := parseEventDate(input.Date)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"message": "invalid date format, use RFC3339 or YYYY-MM-DD"})
				return
			}
			existing.Date = parsed
			update["date"] = parsed
		}

		// --- Optional replacement image ---
		oldImage := existing.Image
		form, _ := c.MultipartForm()
		if form != nil {
			if files := form.File["image"]; len(files) > 0 {
				fileHeader := files[0]
				file, err := fileHeader.Open()
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to open image"})
					return
				}
				url, err := utils.UploadEventImage(file, fileHeader)
				file.Close()
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"message": "image upload failed", "details": err.Error()})
					return
				}
				update["image"] = url
			}
		}

		if len(update) == 1 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "no fields to update"})
			return
		}

		// Status tracks the (possibly new) date unless explicitly set
		if input.Status == "" {
			existing.RecomputeStatus(time.Now())
			update["status"] = existing.Status
		}

		// --- Apply update ---
		if _, err := col.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": update}); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Could not update event"})
			return
		}

		if newImage, ok := update["image"]; ok && oldImage != newImage {
			if err := utils.DeleteEventImage(oldImage); err != nil {
				log.Printf("Failed to delete old event image: %v", err)
			}
		}

		// --- Fetch updated event ---
		var updated models.Event
		if err := col.FindOne(ctx, bson.M{"_id": objID}).Decode(&updated); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Failed to retrieve updated event"})
			return
		}
		attachCreator(ctx, cfg, &updated)
		updated.Enrich()

		c.JSON(http.StatusOK, updated)
	}
}

// ---------------- DELETE ----------------
func DeleteEvent(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// --- Validate requester identity ---
		role := c.GetString("role")
		requesterID := c.GetString("user_id")
		if requesterID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
			return
		}

		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid event id"})
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("events")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var existing models.Event
		if err := col.FindOne(ctx, bson.M{"_id": oid}).Decode(&existing); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "Event not found"})
			return
		}

		if role != "admin" && existing.CreatedBy.Hex() != requesterID {
			c.JSON(http.StatusForbidden, gin.H{"message": "Access denied"})
			return
		}

		res, err := col.DeleteOne(ctx, bson.M{"_id": oid})
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "failed to delete event"})
			return
		}
		if res.DeletedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"message": "Event not found"})
			return
		}

		if err := utils.DeleteEventImage(existing.Image); err != nil {
			log.Printf("Failed to delete event image: %v", err)
		}

		c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully"})
	}
}

// ---------------- REGISTER ----------------
func RegisterForEvent(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid user id"})
			return
		}

		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid event id"})
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("events")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var event models.Event
		if err := col.FindOne(ctx, bson.M{"_id": oid}).Decode(&event); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "Event not found"})
			return
		}

		if len(event.Registered) >= event.Capacity {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Event is full"})
			return
		}
		if event.IsUserRegistered(userID) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Already registered for this event"})
			return
		}

		now := time.Now()
		event.Registered = append(event.Registered, models.Participant{
			User:         userID,
			RegisteredAt: now,
		})
		event.RecomputeStatus(now)

		update := bson.M{
			"registered_participants": event.Registered,
			"status":                  event.Status,
			"updated_at":              now,
		}
		if _, err := col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": update}); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "could not register for event"})
			return
		}
		event.UpdatedAt = now

		// Confirmation email is best effort
		var user models.User
		usersCol := cfg.MongoClient.Database(cfg.DBName).Collection("users")
		if err := usersCol.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err == nil {
			if err := utils.SendRegistrationEmail(user.Email, user.Name, event.Title, event.Date); err != nil {
				log.Printf("Failed to send registration email: %v", err)
			}
		}

		attachCreator(ctx, cfg, &event)
		event.Enrich()
		c.JSON(http.StatusOK, gin.H{
			"message": "Successfully registered for event",
			"event":   event,
		})
	}
}

// ---------------- UNREGISTER ----------------
func UnregisterFromEvent(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid user id"})
			return
		}

		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid event id"})
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("events")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var event models.Event
		if err := col.FindOne(ctx, bson.M{"_id": oid}).Decode(&event); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "Event not found"})
			return
		}

		// Remove every entry for this user; succeeds even if none exist
		kept := event.Registered[:0]
		for _, p := range event.Registered {
			if p.User != userID {
				kept = append(kept, p)
			}
		}
		event.Registered = kept

		now := time.Now()
		event.RecomputeStatus(now)

		update := bson.M{
			"registered_participants": event.Registered,
			"status":                  event.Status,
			"updated_at":              now,
		}
		if _, err := col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": update}); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "could not unregister from event"})
			return
		}
		event.UpdatedAt = now

		attachCreator(ctx, cfg, &event)
		event.Enrich()
		c.JSON(http.StatusOK, gin.H{
			"message": "Successfully unregistered from event",
			"event":   event,
		})
	}
}

// ---------------- USER EVENTS ----------------
func ListRegisteredEvents(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid user id"})
			return
		}

		listUserEvents(c, cfg, bson.M{"registered_participants.user": userID})
	}
}

func ListCreatedEvents(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid user id"})
			return
		}

		listUserEvents(c, cfg, bson.M{"created_by": userID})
	}
}

func listUserEvents(c *gin.Context, cfg *config.Config, filter bson.M) {
	col := cfg.MongoClient.Database(cfg.DBName).Collection("events")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "could not fetch events"})
		return
	}

	var events []models.Event
	if err := cursor.All(ctx, &events); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "could not decode events"})
		return
	}

	if len(events) == 0 {
		c.JSON(http.StatusOK, []models.Event{})
		return
	}

	expandCreators(ctx, cfg, events)
	for i := range events {
		events[i].Enrich()
	}

	c.JSON(http.StatusOK, events)
}

// expandCreators resolves created_by references to name/email in one query.
func expandCreators(ctx context.Context, cfg *config.Config, events []models.Event) {
	if len(events) == 0 {
		return
	}

	seen := map[primitive.ObjectID]bool{}
	ids := []primitive.ObjectID{}
	for _, ev := range events {
		if !ev.CreatedBy.IsZero() && !seen[ev.CreatedBy] {
			seen[ev.CreatedBy] = true
			ids = append(ids, ev.CreatedBy)
		}
	}
	if len(ids) == 0 {
		return
	}

	col := cfg.MongoClient.Database(cfg.DBName).Collection("users")
	cursor, err := col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		log.Printf("Failed to expand event creators: %v", err)
		return
	}

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		log.Printf("Failed to decode event creators: %v", err)
		return
	}

	byID := map[primitive.ObjectID]models.User{}
	for _, u := range users {
		byID[u.ID] = u
	}

	for i := range events {
		if u, ok := byID[events[i].CreatedBy]; ok {
			events[i].Creator = &models.CreatorInfo{ID: u.ID, Name: u.Name, Email: u.Email}
		}
	}
}

// attachCreator is the single-event variant of expandCreators.
func attachCreator(ctx context.Context, cfg *config.Config, event *models.Event) {
	if event.CreatedBy.IsZero() {
		return
	}

	var user models.User
	err := cfg.MongoClient.Database(cfg.DBName).
		Collection("users").
		FindOne(ctx, bson.M{"_id": event.CreatedBy}).
		Decode(&user)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			log.Printf("Failed to expand event creator: %v", err)
		}
		return
	}

	event.Creator = &models.CreatorInfo{ID: user.ID, Name: user.Name, Email: user.Email}
}

// parseEventDate accepts RFC3339 plus a few date-only fallbacks.
func parseEventDate(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04", "2006-01-02 15:04:05"} {
		if t, e := time.Parse(layout, s); e == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
