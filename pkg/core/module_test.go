package core_test

const modulePath = "github.com/Framian/umami"
