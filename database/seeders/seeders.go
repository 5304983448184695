package seeders

import (
	"log"
	"time"

	"academica_go/database"
	"academica_go/models"
	"academica_go/utils"
)

// SeedAll runs all seeders
func SeedAll() {
	log.Println("Starting database seeding...")

	SeedOrganizations()
	SeedUsers()
	SeedCourses()
	SeedGroups()
	SeedClassSlots()
	SeedAssignments()

	log.Println("Database seeding completed successfully!")
}

// SeedOrganizations seeds two demo tenants
func SeedOrganizations() {
	var count int64
	database.DB.Model(&models.Organization{}).Count(&count)
	if count > 0 {
		log.Println("Organizations already seeded, skipping...")
		return
	}

	orgs := []models.Organization{
		{
			BaseModel: models.BaseModel{ID: 1},
			Name:      "Northside Academy",
			Code:      "NORTH",
			Active:    true,
		},
		{
			BaseModel: models.BaseModel{ID: 2},
			Name:      "Riverside College",
			Code:      "RIVER",
			Active:    true,
		},
	}

	for _, org := range orgs {
		if err := database.DB.Create(&org).Error; err != nil {
			log.Printf("Error seeding organization %s: %v", org.Code, err)
		}
	}
	log.Println("Organizations seeded")
}

// SeedUsers seeds an admin, two teachers and four students for the first org
func SeedUsers() {
	var count int64
	database.DB.Model(&models.User{}).Count(&count)
	if count > 0 {
		log.Println("Users already seeded, skipping...")
		return
	}

	password, err := utils.HashPassword("changeme123")
	if err != nil {
		log.Printf("Error hashing seed password: %v", err)
		return
	}

	type seedUser struct {
		username  string
		role      string
		firstName string
		lastName  string
	}
	seedUsers := []seedUser{
		{"admin", "admin", "Site", "Admin"},
		{"t.harris", "teacher", "Dana", "Harris"},
		{"t.okafor", "teacher", "Chidi", "Okafor"},
		{"s.lee", "student", "Minji", "Lee"},
		{"s.garcia", "student", "Luis", "Garcia"},
		{"s.novak", "student", "Petra", "Novak"},
		{"s.adam", "student", "Yusuf", "Adam"},
	}

	for _, su := range seedUsers {
		user := models.User{
			OrgID:    1,
			Username: su.username,
			Password: password,
			Email:    su.username + "@example.edu",
			Role:     su.role,
			Status:   "active",
		}
		if err := database.DB.Create(&user).Error; err != nil {
			log.Printf("Error seeding user %s: %v", su.username, err)
			continue
		}

		switch su.role {
		case "teacher":
			teacher := models.Teacher{
				OrgID:     1,
				UserID:    user.ID,
				FirstName: su.firstName,
				LastName:  su.lastName,
				Active:    true,
			}
			if err := database.DB.Create(&teacher).Error; err != nil {
				log.Printf("Error seeding teacher %s: %v", su.username, err)
			}
		case "student":
			student := models.Student{
				OrgID:     1,
				UserID:    user.ID,
				FirstName: su.firstName,
				LastName:  su.lastName,
			}
			if err := database.DB.Create(&student).Error; err != nil {
				log.Printf("Error seeding student %s: %v", su.username, err)
			}
		}
	}
	log.Println("Users seeded")
}

// SeedCourses seeds two courses
func SeedCourses() {
	var count int64
	database.DB.Model(&models.Course{}).Count(&count)
	if count > 0 {
		log.Println("Courses already seeded, skipping...")
		return
	}

	courses := []models.Course{
		{
			BaseModel:   models.BaseModel{ID: 1},
			OrgID:       1,
			Name:        "Mathematics I",
			Code:        "MATH-101",
			Description: "Algebra and introductory analysis",
			Status:      "active",
		},
		{
			BaseModel:   models.BaseModel{ID: 2},
			OrgID:       1,
			Name:        "English Composition",
			Code:        "ENG-101",
			Description: "Academic writing fundamentals",
			Status:      "active",
		},
	}

	for _, course := range courses {
		if err := database.DB.Create(&course).Error; err != nil {
			log.Printf("Error seeding course %s: %v", course.Code, err)
		}
	}
	log.Println("Courses seeded")
}

// SeedGroups seeds one group per course with all four students enrolled
func SeedGroups() {
	var count int64
	database.DB.Model(&models.Group{}).Count(&count)
	if count > 0 {
		log.Println("Groups already seeded, skipping...")
		return
	}

	var teachers []models.Teacher
	if err := database.DB.Where("org_id = ?", 1).Order("id").Find(&teachers).Error; err != nil || len(teachers) < 2 {
		log.Println("Cannot seed groups: teachers missing")
		return
	}

	groups := []models.Group{
		{BaseModel: models.BaseModel{ID: 1}, OrgID: 1, Name: "MATH-101 Morning", CourseID: 1, TeacherID: teachers[0].ID, Status: "active"},
		{BaseModel: models.BaseModel{ID: 2}, OrgID: 1, Name: "ENG-101 Afternoon", CourseID: 2, TeacherID: teachers[1].ID, Status: "active"},
	}
	for _, group := range groups {
		if err := database.DB.Create(&group).Error; err != nil {
			log.Printf("Error seeding group %s: %v", group.Name, err)
		}
	}

	var students []models.Student
	if err := database.DB.Where("org_id = ?", 1).Order("id").Find(&students).Error; err != nil {
		return
	}
	now := time.Now()
	for _, group := range groups {
		for _, student := range students {
			member := models.GroupMember{
				OrgID:     1,
				GroupID:   group.ID,
				StudentID: student.ID,
				Status:    "active",
				JoinedAt:  &now,
			}
			if err := database.DB.Create(&member).Error; err != nil {
				log.Printf("Error seeding membership: %v", err)
			}
		}
	}
	log.Println("Groups seeded")
}

// SeedClassSlots seeds non-overlapping weekly slots for both groups
func SeedClassSlots() {
	var count int64
	database.DB.Model(&models.ClassSlot{}).Count(&count)
	if count > 0 {
		log.Println("Class slots already seeded, skipping...")
		return
	}

	var groups []models.Group
	if err := database.DB.Where("org_id = ?", 1).Order("id").Find(&groups).Error; err != nil || len(groups) < 2 {
		log.Println("Cannot seed class slots: groups missing")
		return
	}

	slots := []models.ClassSlot{
		{OrgID: 1, TeacherID: groups[0].TeacherID, GroupID: groups[0].ID, DayOfWeek: 1, StartTime: "09:00", EndTime: "10:30", Classroom: "A-101", Active: true},
		{OrgID: 1, TeacherID: groups[0].TeacherID, GroupID: groups[0].ID, DayOfWeek: 3, StartTime: "09:00", EndTime: "10:30", Classroom: "A-101", Active: true},
		{OrgID: 1, TeacherID: groups[1].TeacherID, GroupID: groups[1].ID, DayOfWeek: 2, StartTime: "13:00", EndTime: "14:30", Classroom: "B-204", Active: true},
		{OrgID: 1, TeacherID: groups[1].TeacherID, GroupID: groups[1].ID, DayOfWeek: 4, StartTime: "13:00", EndTime: "14:30", Classroom: "B-204", Active: true},
	}

	for _, slot := range slots {
		if err := database.DB.Create(&slot).Error; err != nil {
			log.Printf("Error seeding class slot: %v", err)
		}
	}
	log.Println("Class slots seeded")
}

// SeedAssignments seeds weighted assignments summing to 100 per course
func SeedAssignments() {
	var count int64
	database.DB.Model(&models.Assignment{}).Count(&count)
	if count > 0 {
		log.Println("Assignments already seeded, skipping...")
		return
	}

	assignments := []models.Assignment{
		{OrgID: 1, CourseID: 1, Code: "MATH-101-HW", Title: "Homework Portfolio", MaxScore: 50, Weight: 20},
		{OrgID: 1, CourseID: 1, Code: "MATH-101-MID", Title: "Midterm Exam", MaxScore: 100, Weight: 35},
		{OrgID: 1, CourseID: 1, Code: "MATH-101-FIN", Title: "Final Exam", MaxScore: 100, Weight: 45},
		{OrgID: 1, CourseID: 2, Code: "ENG-101-ESS", Title: "Essay Series", MaxScore: 40, Weight: 50},
		{OrgID: 1, CourseID: 2, Code: "ENG-101-FIN", Title: "Final Paper", MaxScore: 100, Weight: 50},
	}

	for _, assignment := range assignments {
		if err := database.DB.Create(&assignment).Error; err != nil {
			log.Printf("Error seeding assignment %s: %v", assignment.Code, err)
		}
	}
	log.Println("Assignments seeded")
}
